// Package policy implements the upgrade-policy lattice.
//
// Policies are totally ordered: arbitrary < compatible < immutable.
// A republished package may hold or strengthen its policy, never weaken it.
package policy

import "github.com/GriffinCanCode/coderegistry/internal/shared/types"

// CanStrengthenOrEqual reports whether moving from one policy to another
// keeps or raises the guarantee
func CanStrengthenOrEqual(from, to types.Policy) bool {
	return to >= from
}

// IsImmutable reports whether p forbids any further republish
func IsImmutable(p types.Policy) bool {
	return p == types.PolicyImmutable
}

// Parse reads a policy from its text form
func Parse(s string) (types.Policy, error) {
	return types.ParsePolicy(s)
}

// All returns every policy in lattice order
func All() []types.Policy {
	return []types.Policy{types.PolicyArbitrary, types.PolicyCompatible, types.PolicyImmutable}
}
