// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedPackage indicates a requested package could not be located
	ErrUnresolvedPackage = errors.New("unresolved package")

	// ErrLinkCreation indicates the link side effect could not be performed
	ErrLinkCreation = errors.New("link creation failed")

	// ErrInvalidConfig indicates the environment configuration is inconsistent
	ErrInvalidConfig = errors.New("invalid config")
)

// UnresolvedPackageError reports a package name the registry could not resolve
type UnresolvedPackageError struct {
	Name     string // Requested package name
	Registry string // Registry that was asked
	Err      error  // Underlying error
}

func (e *UnresolvedPackageError) Error() string {
	if e.Registry != "" {
		return fmt.Sprintf("resolve %s (%s registry): %v", e.Name, e.Registry, e.Err)
	}
	return fmt.Sprintf("resolve %s: %v", e.Name, e.Err)
}

func (e *UnresolvedPackageError) Unwrap() error {
	return e.Err
}

// Is reports ErrUnresolvedPackage regardless of the wrapped cause
func (e *UnresolvedPackageError) Is(target error) bool {
	return target == ErrUnresolvedPackage
}

// LinkCreationError reports a failed symbolic link side effect
type LinkCreationError struct {
	Path   string // Link location
	Target string // Intended link target
	Err    error  // Underlying error
}

func (e *LinkCreationError) Error() string {
	return fmt.Sprintf("link %s -> %s: %v", e.Path, e.Target, e.Err)
}

func (e *LinkCreationError) Unwrap() error {
	return e.Err
}

// Is reports ErrLinkCreation regardless of the wrapped cause
func (e *LinkCreationError) Is(target error) bool {
	return target == ErrLinkCreation
}
