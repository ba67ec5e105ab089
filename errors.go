// errors.go
package shellenv

import (
	"errors"
	"fmt"

	"github.com/arc-language/shellenv/pkg/core"
	"github.com/arc-language/shellenv/pkg/env"
)

var (
	// ErrUnresolvedPackage indicates a registry could not locate a package
	ErrUnresolvedPackage = core.ErrUnresolvedPackage

	// ErrLinkCreation indicates the link side effect failed
	ErrLinkCreation = core.ErrLinkCreation

	// ErrInvalidConfig indicates the configuration is inconsistent
	ErrInvalidConfig = core.ErrInvalidConfig

	// ErrBuilderUsed indicates a builder was asked to build twice
	ErrBuilderUsed = env.ErrBuilderUsed

	// ErrPlatformNotSupported indicates the platform is not supported
	ErrPlatformNotSupported = errors.New("platform not supported")
)

// Re-export typed errors
type (
	UnresolvedPackageError = core.UnresolvedPackageError
	LinkCreationError      = core.LinkCreationError
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
