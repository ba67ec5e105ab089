// pkg/env/builder.go
package env

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arc-language/shellenv/pkg/core"
)

// ErrBuilderUsed is returned when Build runs on a builder that already ran
var ErrBuilderUsed = errors.New("builder already ran")

// Builder constructs the environment descriptor for one shell invocation
type Builder struct {
	config   *core.Config
	registry core.Registry
	logger   *zap.Logger
	layout   PackageLayout
	state    State
}

// NewBuilder creates a builder over an explicit configuration and registry
func NewBuilder(cfg *core.Config, registry core.Registry, logger *zap.Logger) *Builder {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		config:   cfg,
		registry: registry,
		logger:   logger,
		layout:   NixLayout(),
		state:    StateUnresolved,
	}
}

// State returns the lifecycle state
func (b *Builder) State() State {
	return b.state
}

// Build resolves the configured packages, derives the variables and, when
// enabled, creates the link. Nothing is returned unless every step succeeds.
func (b *Builder) Build(ctx context.Context) (*Descriptor, error) {
	if b.state != StateUnresolved {
		return nil, ErrBuilderUsed
	}

	desc, err := b.build(ctx)
	if err != nil {
		b.state = StateFailed
		b.logger.Debug("environment construction failed", zap.Error(err))
		return nil, err
	}

	b.state = StateResolved
	return desc, nil
}

func (b *Builder) build(ctx context.Context) (*Descriptor, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	refs, err := b.ResolvePackages(ctx, b.config.Packages)
	if err != nil {
		return nil, err
	}

	desc, err := b.BuildEnvironment(refs)
	if err != nil {
		return nil, err
	}

	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("validating environment: %w", err)
	}

	if !b.config.SkipVerify {
		if err := desc.Verify(); err != nil {
			return nil, fmt.Errorf("verifying environment: %w", err)
		}
	}

	if b.config.Link.Enabled {
		ref, ok := desc.Package(b.config.Link.Package)
		if !ok {
			return nil, &core.UnresolvedPackageError{Name: b.config.Link.Package, Err: core.ErrUnresolvedPackage}
		}
		linkPath := filepath.Join(b.config.ProjectRoot, b.config.Link.Path)
		if err := b.ApplySideEffect(ref, linkPath); err != nil {
			return nil, err
		}
	}

	return desc, nil
}

// ResolvePackages resolves each name through the registry, in order.
// Repeated names are resolved once.
func (b *Builder) ResolvePackages(ctx context.Context, names []string) ([]core.PackageReference, error) {
	if b.registry == nil {
		return nil, fmt.Errorf("no registry configured")
	}

	seen := make(map[string]bool, len(names))
	refs := make([]core.PackageReference, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		path, err := b.registry.Resolve(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &core.UnresolvedPackageError{Name: name, Registry: b.registry.Name(), Err: err}
		}
		if !filepath.IsAbs(path) {
			return nil, &core.UnresolvedPackageError{
				Name:     name,
				Registry: b.registry.Name(),
				Err:      fmt.Errorf("%w: registry returned relative path '%s'", core.ErrUnresolvedPackage, path),
			}
		}

		ref := core.PackageReference{Name: name, Path: filepath.Clean(path)}
		b.logger.Debug("resolved package",
			zap.String("package", ref.Name),
			zap.String("path", ref.Path),
			zap.String("registry", b.registry.Name()))
		refs = append(refs, ref)
	}

	return refs, nil
}

// BuildEnvironment derives the configured variables from resolved packages
func (b *Builder) BuildEnvironment(refs []core.PackageReference) (*Descriptor, error) {
	desc := NewDescriptor(refs, nil, b.layout)

	for _, v := range b.config.Variables {
		ref, ok := desc.Package(v.Package)
		if !ok {
			return nil, &core.UnresolvedPackageError{
				Name: v.Package,
				Err:  fmt.Errorf("%w: needed by %s but not resolved", core.ErrUnresolvedPackage, v.Name),
			}
		}

		value, err := b.deriveValue(ref, v)
		if err != nil {
			return nil, fmt.Errorf("deriving %s: %w", v.Name, err)
		}

		desc.Variables = append(desc.Variables, Variable{
			Name:    v.Name,
			Value:   value,
			Package: ref.Name,
		})
		b.logger.Debug("derived variable", zap.String("name", v.Name), zap.String("value", value))
	}

	return desc, nil
}

func (b *Builder) deriveValue(ref core.PackageReference, v core.Variable) (string, error) {
	if v.Library == "" {
		return ref.Join(v.Path), nil
	}

	lib := NewPackageTree(ref.Path, b.layout).FindSharedLibrary(v.Library)
	if lib == nil {
		return "", fmt.Errorf("library '%s' not found in %s", v.Library, ref.Path)
	}
	return lib.Dir, nil
}

// ApplySideEffect links linkPath to the package's configured target directory
func (b *Builder) ApplySideEffect(jvm core.PackageReference, linkPath string) error {
	target := jvm.Join(b.config.Link.Target)

	created, err := CreateLink(linkPath, target)
	if err != nil {
		return err
	}

	if created {
		b.logger.Info("linked", zap.String("link", linkPath), zap.String("target", target))
	} else {
		b.logger.Debug("link already in place", zap.String("link", linkPath))
	}
	return nil
}
