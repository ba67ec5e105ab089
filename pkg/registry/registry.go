// pkg/registry/registry.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/arc-language/shellenv/pkg/core"
)

// ErrNotPinned is returned by Load when a package has no deps/<name>/index.toml
var ErrNotPinned = errors.New("package not pinned")

// Entry represents a single deps/<name>/index.toml file
type Entry struct {
	Name      string   `toml:"name"`
	Attribute string   `toml:"attribute"`  // nixpkgs attribute path to resolve instead of the name
	StorePath string   `toml:"store_path"` // pinned store object, used when present on disk
	Libs      []string `toml:"libs"`
}

// Registry layers pins from the cached deps/ folder over another registry
type Registry struct {
	depsDir string
	inner   core.Registry
	logger  *zap.Logger
}

// New creates a Registry pointed at the cached deps directory
func New(cacheDir string, inner core.Registry, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		depsDir: filepath.Join(cacheDir, "deps"),
		inner:   inner,
		logger:  logger,
	}
}

// Name returns the name of the wrapped registry with a pins marker
func (r *Registry) Name() string {
	return r.inner.Name() + "+pins"
}

// Resolve takes a package name and returns the path of its store object.
// A pinned store path that exists wins, then the pinned attribute is
// resolved through the inner registry, then the name itself.
// e.g. Resolve("openjdk8") with attribute "openjdk8_headless"
func (r *Registry) Resolve(ctx context.Context, name string) (string, error) {
	entry, err := r.Load(name)
	switch {
	case errors.Is(err, ErrNotPinned):
		return r.inner.Resolve(ctx, name)
	case err != nil:
		return "", err
	}

	if entry.StorePath != "" {
		if _, err := os.Stat(entry.StorePath); err == nil {
			r.logger.Debug("using pinned store path",
				zap.String("package", name),
				zap.String("path", entry.StorePath))
			return filepath.Clean(entry.StorePath), nil
		}
		r.logger.Debug("pinned store path missing, falling back",
			zap.String("package", name),
			zap.String("path", entry.StorePath))
	}

	attr := name
	if entry.Attribute != "" {
		attr = entry.Attribute
	}

	return r.inner.Resolve(ctx, attr)
}

// Load reads and parses deps/<name>/index.toml.
// This is the primary method for retrieving package metadata.
func (r *Registry) Load(name string) (*Entry, error) {
	path := filepath.Join(r.depsDir, name, "index.toml")

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("registry: %w: '%s'", ErrNotPinned, name)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: reading '%s': %w", name, err)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
	}

	if entry.Name != "" && entry.Name != name {
		return nil, fmt.Errorf("registry: '%s' index declares name '%s'", name, entry.Name)
	}

	return &entry, nil
}

// Available reports whether a deps directory exists under cacheDir
func Available(cacheDir string) bool {
	info, err := os.Stat(filepath.Join(cacheDir, "deps"))
	return err == nil && info.IsDir()
}
