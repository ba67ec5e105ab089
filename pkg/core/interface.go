// pkg/core/interface.go
package core

import (
	"context"
	"fmt"
	"path/filepath"
)

// Registry resolves package names to installed package roots
type Registry interface {
	// Name returns the registry name (e.g., "store", "substitute")
	Name() string

	// Resolve returns the absolute root path of the named package.
	// Unknown names must produce an error wrapping ErrUnresolvedPackage.
	Resolve(ctx context.Context, name string) (string, error)
}

// StaticRegistry resolves names from a fixed table
type StaticRegistry map[string]string

// Name returns the registry name
func (s StaticRegistry) Name() string {
	return "static"
}

// Resolve looks the name up in the table
func (s StaticRegistry) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, ok := s[name]
	if !ok {
		return "", fmt.Errorf("%w: no entry for '%s'", ErrUnresolvedPackage, name)
	}
	return filepath.Clean(path), nil
}
