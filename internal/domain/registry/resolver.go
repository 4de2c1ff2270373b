package registry

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// ResolveDependencies turns the declared dependencies of a package into the
// flat list of (account, module) pairs it may link against.
//
// Each declared dependency is visited once and only its direct presence and
// policy are checked. Dependencies at exempt accounts resolve to a single
// wildcard entry. The first unresolvable dependency aborts resolution.
func ResolveDependencies(ctx context.Context, store Store, publisher types.Address, deps []types.DepRef) ([]types.AllowedDep, error) {
	allowed := make([]types.AllowedDep, 0, len(deps))

	for _, dep := range deps {
		if types.IsPolicyExempt(dep.Account) {
			allowed = append(allowed, types.AllowedDep{Account: dep.Account, ModuleName: types.Wildcard})
			continue
		}

		reg, ok, err := store.Load(ctx, dep.Account)
		if err != nil {
			return nil, fmt.Errorf("load registry %s: %w", dep.Account, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: no packages published at %s (wanted %q)",
				ErrDependencyMissing, dep.Account, dep.PackageName)
		}

		idx, found := FindIndexByName(reg, dep.PackageName)
		if !found {
			return nil, fmt.Errorf("%w: package %q not found at %s",
				ErrDependencyMissing, dep.PackageName, dep.Account)
		}

		resolved := &reg.Packages[idx]
		if resolved.UpgradePolicy == types.PolicyArbitrary && dep.Account != publisher {
			return nil, fmt.Errorf("%w: %s::%s is arbitrary and cannot be used from %s",
				ErrArbitraryDepCrossAddress, dep.Account, dep.PackageName, publisher)
		}

		for _, m := range resolved.Modules {
			allowed = append(allowed, types.AllowedDep{Account: dep.Account, ModuleName: m.Name})
		}
	}

	return allowed, nil
}
