// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"
)

// Platform represents the detected system platform
type Platform struct {
	OS       string // linux, darwin
	Arch     string // amd64, arm64
	System   string // nix system double, e.g. x86_64-linux
	HasNix   bool   // nix tooling found in PATH
	HasStore bool   // the store directory exists
	StoreDir string
}

// Detect inspects the current platform and the nix installation rooted at storeDir
func Detect(storeDir string) (*Platform, error) {
	system, err := NixSystem()
	if err != nil {
		return nil, err
	}

	p := &Platform{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		System:   system,
		HasNix:   commandExists("nix-store") || commandExists("nix"),
		HasStore: dirExists(storeDir),
		StoreDir: storeDir,
	}

	return p, nil
}

// NixSystem returns the nix system double for the running platform
func NixSystem() (string, error) {
	return systemFor(runtime.GOOS, runtime.GOARCH)
}

func systemFor(goos, goarch string) (string, error) {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "riscv64":
		arch = "riscv64"
	default:
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}

	switch goos {
	case "linux", "darwin":
		return arch + "-" + goos, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s (nix: %t, store %s: %t)",
		p.System, p.HasNix, p.StoreDir, p.HasStore)
}
