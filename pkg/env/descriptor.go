// pkg/env/descriptor.go
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/shellenv/pkg/core"
)

// PkgConfigPathVar lists the pkg-config directories of the packages
const PkgConfigPathVar = "PKG_CONFIG_PATH"

// Descriptor is the environment handed to the development shell
type Descriptor struct {
	Packages  []core.PackageReference // Resolved packages, in request order
	Variables []Variable              // Exported variables, in config order
	layout    PackageLayout
}

// NewDescriptor creates a descriptor whose search path follows layout
func NewDescriptor(refs []core.PackageReference, vars []Variable, layout PackageLayout) *Descriptor {
	return &Descriptor{Packages: refs, Variables: vars, layout: layout}
}

// Lookup returns the value of an exported variable
func (d *Descriptor) Lookup(name string) (string, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Map returns the exported variables keyed by name
func (d *Descriptor) Map() map[string]string {
	m := make(map[string]string, len(d.Variables))
	for _, v := range d.Variables {
		m[v.Name] = v.Value
	}
	return m
}

// Package returns the reference for a package name
func (d *Descriptor) Package(name string) (core.PackageReference, bool) {
	for _, ref := range d.Packages {
		if ref.Name == name {
			return ref, true
		}
	}
	return core.PackageReference{}, false
}

// SearchPath returns the package binary directories that exist, in package order
func (d *Descriptor) SearchPath() []string {
	var dirs []string
	for _, ref := range d.Packages {
		dirs = append(dirs, NewPackageTree(ref.Path, d.layout).BinaryPaths()...)
	}
	return dirs
}

// PkgConfigPath returns the package pkg-config directories that exist, in
// package order
func (d *Descriptor) PkgConfigPath() []string {
	var dirs []string
	for _, ref := range d.Packages {
		dirs = append(dirs, NewPackageTree(ref.Path, d.layout).PkgConfigPaths()...)
	}
	return dirs
}

// Validate checks that every variable is an absolute path into a described package
func (d *Descriptor) Validate() error {
	for _, v := range d.Variables {
		ref, ok := d.Package(v.Package)
		if !ok {
			return fmt.Errorf("variable %s references package '%s' missing from the environment", v.Name, v.Package)
		}
		if !filepath.IsAbs(v.Value) {
			return fmt.Errorf("variable %s is not an absolute path: %s", v.Name, v.Value)
		}
		if !within(ref.Path, v.Value) {
			return fmt.Errorf("variable %s escapes package '%s': %s", v.Name, v.Package, v.Value)
		}
	}
	return nil
}

// Verify checks that every variable value exists on the filesystem
func (d *Descriptor) Verify() error {
	for _, v := range d.Variables {
		if _, err := os.Stat(v.Value); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}
	return nil
}

// Environ merges the descriptor into a KEY=VALUE environment.
// Exported variables replace existing ones, binary directories are
// prepended to PATH and pkg-config directories to PKG_CONFIG_PATH.
func (d *Descriptor) Environ(base []string) []string {
	env := make([]string, 0, len(base)+len(d.Variables)+2)
	env = append(env, base...)

	for _, v := range d.Variables {
		env = setEnvKey(env, v.Name, v.Value)
	}

	env = prependEnvList(env, "PATH", d.SearchPath())
	env = prependEnvList(env, PkgConfigPathVar, d.PkgConfigPath())

	return env
}

func prependEnvList(env []string, key string, dirs []string) []string {
	if len(dirs) == 0 {
		return env
	}

	value := strings.Join(dirs, string(os.PathListSeparator))
	if current, ok := getEnvKey(env, key); ok && current != "" {
		value += string(os.PathListSeparator) + current
	}
	return setEnvKey(env, key, value)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func getEnvKey(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

// setEnvKey replaces every KEY= entry with a single one
func setEnvKey(env []string, key, value string) []string {
	prefix := key + "="
	out := env[:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}
