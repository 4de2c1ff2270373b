package registry

import (
	"fmt"

	"github.com/GriffinCanCode/coderegistry/internal/domain/policy"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// UpgradeRules tunes the checks applied when a package is republished
type UpgradeRules struct {
	// RequireModuleRetention rejects upgrades that drop a module the
	// previous version published.
	RequireModuleRetention bool
}

// ValidateUpgrade checks a republish of old and returns the upgrade number
// the candidate will be stored with.
func ValidateUpgrade(old, candidate *types.Package, rules UpgradeRules) (uint64, error) {
	if policy.IsImmutable(old.UpgradePolicy) {
		return 0, fmt.Errorf("%w: %q", ErrImmutablePackage, old.Name)
	}

	if !policy.CanStrengthenOrEqual(old.UpgradePolicy, candidate.UpgradePolicy) {
		return 0, fmt.Errorf("%w: %q is %s, got %s",
			ErrWeakerPolicy, old.Name, old.UpgradePolicy, candidate.UpgradePolicy)
	}

	if rules.RequireModuleRetention {
		if missing := missingModules(old, candidate); len(missing) > 0 {
			return 0, fmt.Errorf("%w: %q drops %v", ErrModuleMissing, old.Name, missing)
		}
	}

	return old.UpgradeNumber + 1, nil
}

func missingModules(old, candidate *types.Package) []string {
	kept := make(map[string]struct{}, len(candidate.Modules))
	for _, m := range candidate.Modules {
		kept[m.Name] = struct{}{}
	}

	var missing []string
	for _, m := range old.Modules {
		if _, ok := kept[m.Name]; !ok {
			missing = append(missing, m.Name)
		}
	}
	return missing
}
