// pkg/platform/resolver.go
package platform

import (
	"fmt"
	"slices"

	"github.com/arc-language/shellenv/pkg/core"
)

// ChooseRegistry resolves which registry kind to use.
// Priority:
// 1. An explicit kind from config
// 2. The local store, when it exists
// 3. Substitution from the binary cache
func ChooseRegistry(p *Platform, requested string) (string, error) {
	switch requested {
	case core.RegistryStore, core.RegistrySubstitute:
		return requested, nil
	case "", core.RegistryAuto:
	default:
		return "", fmt.Errorf("unknown registry '%s' (want one of %v)", requested, Registries())
	}

	if p.HasStore {
		return core.RegistryStore, nil
	}
	return core.RegistrySubstitute, nil
}

// Registries lists the registry kinds that can be requested
func Registries() []string {
	return []string{core.RegistryAuto, core.RegistryStore, core.RegistrySubstitute}
}

// IsRegistry reports whether kind names a known registry
func IsRegistry(kind string) bool {
	return slices.Contains(Registries(), kind)
}
