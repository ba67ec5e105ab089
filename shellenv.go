// shellenv.go
package shellenv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arc-language/shellenv/pkg/core"
	"github.com/arc-language/shellenv/pkg/env"
	"github.com/arc-language/shellenv/pkg/index"
	"github.com/arc-language/shellenv/pkg/nix"
	"github.com/arc-language/shellenv/pkg/platform"
	"github.com/arc-language/shellenv/pkg/registry"
)

// Re-export core types for convenience
type (
	Config           = core.Config
	Variable         = core.Variable
	LinkConfig       = core.LinkConfig
	PackageReference = core.PackageReference
	Registry         = core.Registry
	Descriptor       = env.Descriptor
	// RegistryEntry is the metadata for a package from the deps/ pins.
	RegistryEntry = registry.Entry
	SyncResult    = index.Result
)

// Re-export registry kinds
const (
	RegistryAuto       = core.RegistryAuto
	RegistryStore      = core.RegistryStore
	RegistrySubstitute = core.RegistrySubstitute
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// LoadConfig reads a configuration file over the defaults
func LoadConfig(path string) (*Config, error) {
	return core.LoadConfig(path)
}

// Manager builds development environments from a configuration
type Manager struct {
	config   *core.Config
	platform *platform.Platform
	registry core.Registry
	pins     *registry.Registry // only set when pins are synced
	logger   *zap.Logger
}

// NewManager creates a manager, choosing the registry from the configuration
// and the detected platform
func NewManager(config *Config, logger *zap.Logger) (*Manager, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := platform.Detect(config.StoreDir)
	if err != nil {
		return nil, &Error{Op: "detect platform", Err: fmt.Errorf("%w: %v", ErrPlatformNotSupported, err)}
	}

	kind, err := platform.ChooseRegistry(p, config.Registry)
	if err != nil {
		return nil, &Error{Op: "choose registry", Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
	}

	var reg core.Registry
	switch kind {
	case core.RegistryStore:
		reg = nix.NewStore(config.StoreDir, config.Aliases, logger.Named("store"))
	case core.RegistrySubstitute:
		system := config.Substituter.Platform
		if system == "" {
			system = p.System
		}
		reg = nix.NewSubstituter(&nix.Config{
			CacheURL: config.Substituter.CacheURL,
			HydraURL: config.Substituter.HydraURL,
			Jobset:   config.Substituter.Jobset,
			StoreDir: config.StoreDir,
			System:   system,
			Timeout:  config.Substituter.Timeout,
			Logger:   logger.Named("substitute"),
		})
	}

	m := &Manager{
		config:   config,
		platform: p,
		registry: reg,
		logger:   logger,
	}

	if config.CachePath != "" && registry.Available(config.CachePath) {
		m.pins = registry.New(config.CachePath, reg, logger.Named("pins"))
		m.registry = m.pins
	}

	logger.Debug("manager ready",
		zap.String("platform", p.String()),
		zap.String("registry", m.registry.Name()))

	return m, nil
}

// NewManagerWithRegistry creates a manager over an explicit registry
func NewManagerWithRegistry(config *Config, reg Registry, logger *zap.Logger) *Manager {
	if config == nil {
		config = core.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{config: config, registry: reg, logger: logger}
}

// Build constructs the environment descriptor and applies the link side effect
func (m *Manager) Build(ctx context.Context) (*Descriptor, error) {
	return m.builder().Build(ctx)
}

// Resolve resolves every configured package without deriving variables
func (m *Manager) Resolve(ctx context.Context) ([]PackageReference, error) {
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	return m.builder().ResolvePackages(ctx, m.config.Packages)
}

// ResolvePackage resolves a single package name through the active registry
func (m *Manager) ResolvePackage(ctx context.Context, name string) (string, error) {
	refs, err := m.builder().ResolvePackages(ctx, []string{name})
	if err != nil {
		return "", err
	}
	return refs[0].Path, nil
}

// Link resolves only the linked package and creates the configured link
func (m *Manager) Link(ctx context.Context) (string, error) {
	if err := m.config.Validate(); err != nil {
		return "", err
	}
	if !m.config.Link.Enabled {
		return "", &Error{Op: "link", Err: fmt.Errorf("%w: link is disabled", ErrInvalidConfig)}
	}

	b := m.builder()
	refs, err := b.ResolvePackages(ctx, []string{m.config.Link.Package})
	if err != nil {
		return "", err
	}

	linkPath := filepath.Join(m.config.ProjectRoot, m.config.Link.Path)
	if err := b.ApplySideEffect(refs[0], linkPath); err != nil {
		return "", err
	}
	return linkPath, nil
}

// Sync updates the pins in the cache directory from the configured repository
func (m *Manager) Sync(ctx context.Context, progress io.Writer) (*SyncResult, error) {
	if m.config.CachePath == "" {
		return nil, &Error{Op: "sync", Err: fmt.Errorf("%w: no cache path", ErrInvalidConfig)}
	}

	return index.Sync(ctx, m.config.CachePath, index.Options{
		URL:      m.config.PinsURL,
		Branch:   m.config.PinsBranch,
		Depth:    1,
		Progress: progress,
	}, m.logger.Named("sync"))
}

// GetRegistryEntry retrieves the pins entry for a package.
// Returns an error if no pins are synced or the package is not pinned.
func (m *Manager) GetRegistryEntry(name string) (*RegistryEntry, error) {
	if m.pins == nil {
		return nil, &Error{Op: "pins", Package: name, Err: fmt.Errorf("no pins in %s, run sync first", m.config.CachePath)}
	}
	return m.pins.Load(name)
}

// Registry returns the name of the active registry
func (m *Manager) Registry() string {
	return m.registry.Name()
}

// Platform returns the detected platform, nil for managers over an explicit registry
func (m *Manager) Platform() *platform.Platform {
	return m.platform
}

// Config returns the configuration the manager builds from
func (m *Manager) Config() *Config {
	return m.config
}

func (m *Manager) builder() *env.Builder {
	return env.NewBuilder(m.config, m.registry, m.logger.Named("builder"))
}
