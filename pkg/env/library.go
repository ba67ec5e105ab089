// pkg/env/library.go
package env

import (
	"os"
	"path/filepath"
	"sort"
)

// PackageTree locates files inside one installed package
type PackageTree struct {
	Root   string
	Layout PackageLayout
}

// NewPackageTree returns a tree rooted at an installed package
func NewPackageTree(root string, layout PackageLayout) *PackageTree {
	return &PackageTree{Root: root, Layout: layout}
}

// LibraryPaths returns the existing library directories
func (t *PackageTree) LibraryPaths() []string {
	return t.existing(t.Layout.Libraries)
}

// BinaryPaths returns the existing executable directories
func (t *PackageTree) BinaryPaths() []string {
	return t.existing(t.Layout.Binaries)
}

// PkgConfigPaths returns the existing pkg-config directories
func (t *PackageTree) PkgConfigPaths() []string {
	return t.existing(t.Layout.PkgConfig)
}

func (t *PackageTree) existing(rel []string) []string {
	var paths []string
	for _, r := range rel {
		p := filepath.Join(t.Root, r)
		if dirExists(p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// FindSharedLibrary searches the library directories for lib<name> with a
// shared library extension, versioned names included (libclang.so.11)
func (t *PackageTree) FindSharedLibrary(name string) *Library {
	for _, dir := range t.LibraryPaths() {
		for _, ext := range GetSharedLibraryExtensions() {
			filename := "lib" + name + ext
			fullPath := filepath.Join(dir, filename)

			if fileExists(fullPath) {
				return newLibrary(name, fullPath)
			}

			matches, _ := filepath.Glob(filepath.Join(dir, filename+".*"))
			if len(matches) > 0 {
				sort.Strings(matches)
				return newLibrary(name, matches[0])
			}
		}
	}

	return nil
}

func newLibrary(name, path string) *Library {
	return &Library{
		Name: name,
		Path: path,
		Dir:  filepath.Dir(path),
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
