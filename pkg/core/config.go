// pkg/core/config.go
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the project root when no path is given
const ConfigFileName = "shellenv.yaml"

// Registry kinds
const (
	RegistryAuto       = "auto"
	RegistryStore      = "store"
	RegistrySubstitute = "substitute"
)

// Config describes the development environment to construct
type Config struct {
	ProjectRoot string            `yaml:"project_root"`
	StoreDir    string            `yaml:"store_dir"`
	Registry    string            `yaml:"registry"`
	CachePath   string            `yaml:"cache_path"` // pins live in <cache_path>/deps
	PinsURL     string            `yaml:"pins_url"`
	PinsBranch  string            `yaml:"pins_branch"`
	Packages    []string          `yaml:"packages"`
	Aliases     map[string]Alias  `yaml:"aliases"`
	Variables   []Variable        `yaml:"variables"`
	Link        LinkConfig        `yaml:"link"`
	Substituter SubstituterConfig `yaml:"substituter"`
	SkipVerify  bool              `yaml:"skip_verify"`
	Debug       bool              `yaml:"debug"`
}

// Variable derives one environment variable from a package.
// Exactly one of Path or Library is set.
type Variable struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`
	Path    string `yaml:"path"`    // relative to the package root
	Library string `yaml:"library"` // directory containing lib<Library>
}

// Alias maps a package name onto the store objects that provide it.
// nixpkgs attributes often differ from the name in the store path:
// openjdk8 is stored as openjdk-8u272-b10.
type Alias struct {
	Pname   string `yaml:"pname"`   // name in the store path
	Version string `yaml:"version"` // required version prefix, e.g. "8"
	Output  string `yaml:"output"`  // output to pick, e.g. "lib"; empty for the default output
}

// LinkConfig configures the symbolic link side effect
type LinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`    // relative to the project root
	Package string `yaml:"package"` // package the link points into
	Target  string `yaml:"target"`  // relative to the package root
}

// SubstituterConfig configures binary cache downloads
type SubstituterConfig struct {
	CacheURL string        `yaml:"cache_url"`
	HydraURL string        `yaml:"hydra_url"`
	Jobset   string        `yaml:"jobset"`
	Platform string        `yaml:"platform"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the pinned query-engine environment
func DefaultConfig() *Config {
	return &Config{
		ProjectRoot: ".",
		StoreDir:    "/nix/store",
		Registry:    RegistryAuto,
		CachePath:   getDefaultCachePath(),
		PinsBranch:  "main",
		Packages: []string{
			"llvmPackages.libclang",
			"openjdk8",
			"sbt",
			"sbt-extras",
			"openssl",
			"pkg-config",
			"rustup",
			"krb5",
			"protobuf",
		},
		Aliases: map[string]Alias{
			"llvmPackages.libclang": {Pname: "clang", Output: "lib"},
			"openjdk8":              {Pname: "openjdk", Version: "8"},
		},
		Variables: []Variable{
			{Name: "LIBCLANG_PATH", Package: "llvmPackages.libclang", Path: "lib"},
			{Name: "PROTOC", Package: "protobuf", Path: filepath.Join("bin", "protoc")},
			{Name: "PROTOC_INCLUDE", Package: "protobuf", Path: "include"},
			{Name: "JAVA_HOME", Package: "openjdk8", Path: filepath.Join("lib", "openjdk")},
		},
		Link: LinkConfig{
			Enabled: true,
			Path:    filepath.Join("query-engine", "connector-test-kit", ".openjdk"),
			Package: "openjdk8",
			Target:  filepath.Join("lib", "openjdk"),
		},
		Substituter: SubstituterConfig{
			CacheURL: "https://cache.nixos.org",
			HydraURL: "https://hydra.nixos.org",
			Jobset:   "nixos/trunk-combined",
			Timeout:  2 * time.Minute,
		},
	}
}

// LoadConfig reads a YAML file over the defaults.
// An empty path looks for shellenv.yaml in the current directory and
// falls back to the defaults when it does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// A relative project root is taken relative to the config file
	if !filepath.IsAbs(cfg.ProjectRoot) {
		cfg.ProjectRoot = filepath.Join(filepath.Dir(path), cfg.ProjectRoot)
	}

	return cfg, nil
}

// SaveConfig writes the configuration as YAML
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = ConfigFileName
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	switch c.Registry {
	case RegistryAuto, RegistryStore, RegistrySubstitute:
	default:
		return fmt.Errorf("%w: unknown registry '%s'", ErrInvalidConfig, c.Registry)
	}

	if !filepath.IsAbs(c.StoreDir) {
		return fmt.Errorf("%w: store_dir must be absolute, got '%s'", ErrInvalidConfig, c.StoreDir)
	}

	if len(c.Packages) == 0 {
		return fmt.Errorf("%w: no packages requested", ErrInvalidConfig)
	}

	requested := make(map[string]bool, len(c.Packages))
	for _, name := range c.Packages {
		if name == "" {
			return fmt.Errorf("%w: empty package name", ErrInvalidConfig)
		}
		requested[name] = true
	}

	for name, alias := range c.Aliases {
		if alias.Pname == "" {
			return fmt.Errorf("%w: alias '%s' has no pname", ErrInvalidConfig, name)
		}
	}

	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable without a name", ErrInvalidConfig)
		}
		if !validVariableName(v.Name) {
			return fmt.Errorf("%w: '%s' is not a valid environment variable name", ErrInvalidConfig, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: variable '%s' defined twice", ErrInvalidConfig, v.Name)
		}
		seen[v.Name] = true

		if !requested[v.Package] {
			return fmt.Errorf("%w: variable '%s' references unrequested package '%s'", ErrInvalidConfig, v.Name, v.Package)
		}
		if (v.Path == "") == (v.Library == "") {
			return fmt.Errorf("%w: variable '%s' needs exactly one of path or library", ErrInvalidConfig, v.Name)
		}
		if filepath.IsAbs(v.Path) {
			return fmt.Errorf("%w: variable '%s' path must be relative to the package", ErrInvalidConfig, v.Name)
		}
	}

	if c.Link.Enabled {
		if c.Link.Path == "" || filepath.IsAbs(c.Link.Path) {
			return fmt.Errorf("%w: link path must be relative to the project root", ErrInvalidConfig)
		}
		if !requested[c.Link.Package] {
			return fmt.Errorf("%w: link references unrequested package '%s'", ErrInvalidConfig, c.Link.Package)
		}
		if filepath.IsAbs(c.Link.Target) {
			return fmt.Errorf("%w: link target must be relative to the package", ErrInvalidConfig)
		}
	}

	return nil
}

func validVariableName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func getDefaultCachePath() string {
	if path := os.Getenv("SHELLENV_CACHE_PATH"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "shellenv")
	}

	return filepath.Join(home, ".cache", "shellenv")
}
