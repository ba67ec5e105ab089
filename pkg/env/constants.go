// pkg/env/constants.go
package env

import (
	"path/filepath"
	"runtime"
)

// NixLayout returns the directory structure of a nix store object.
// These are RELATIVE paths within the package root.
func NixLayout() PackageLayout {
	return PackageLayout{
		Libraries: []string{
			"lib",
			"lib64",
		},
		PkgConfig: []string{
			filepath.Join("lib", "pkgconfig"),
			filepath.Join("share", "pkgconfig"),
		},
		Binaries: []string{
			"bin",
		},
	}
}

// GetSharedLibraryExtensions returns shared library extensions for the OS
func GetSharedLibraryExtensions() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{".dylib"}
	case "windows":
		return []string{".dll"}
	default:
		return []string{".so"}
	}
}
