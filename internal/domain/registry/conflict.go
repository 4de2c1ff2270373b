package registry

import (
	"fmt"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// CheckCoexistence fails with ErrModuleNameClash when a package other than
// the one named candidate.Name already owns one of the candidate's modules.
// Module names are unique across the whole registry, not just per package.
func CheckCoexistence(reg *types.Registry, candidate *types.Package) error {
	names := make(map[string]struct{}, len(candidate.Modules))
	for _, m := range candidate.Modules {
		names[m.Name] = struct{}{}
	}

	for i := range reg.Packages {
		existing := &reg.Packages[i]
		if existing.Name == candidate.Name {
			continue
		}
		for _, m := range existing.Modules {
			if _, clash := names[m.Name]; clash {
				return fmt.Errorf("%w: module %q of package %q already owned by package %q at %s",
					ErrModuleNameClash, m.Name, candidate.Name, existing.Name, reg.Address)
			}
		}
	}
	return nil
}
