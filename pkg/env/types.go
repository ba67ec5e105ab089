// pkg/env/types.go
package env

// PackageLayout defines where files are located within an installed package
type PackageLayout struct {
	Libraries []string // Relative paths to library directories
	PkgConfig []string // Relative paths to pkg-config directories
	Binaries  []string // Relative paths to binary directories
}

// Library represents a found shared library
type Library struct {
	Name string // Library name (e.g., "clang")
	Path string // Absolute path to library file
	Dir  string // Directory holding the file
}

// Variable is one exported environment variable
type Variable struct {
	Name    string // e.g. JAVA_HOME
	Value   string // Absolute path derived from Package
	Package string // Name of the package the value points into
}

// State is the builder lifecycle state
type State int

const (
	StateUnresolved State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
