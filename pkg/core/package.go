// pkg/core/package.go
package core

import "path/filepath"

// PackageReference is a requested package name resolved to an absolute path
type PackageReference struct {
	Name string // Name as requested (e.g., "openjdk8")
	Path string // Absolute root of the installed package
}

// Join returns an absolute path below the package root
func (r PackageReference) Join(elem ...string) string {
	return filepath.Join(append([]string{r.Path}, elem...)...)
}

func (r PackageReference) String() string {
	return r.Name + "=" + r.Path
}
