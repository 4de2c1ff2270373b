// Package registry implements the package registry and its publish rules.
//
// Every account owns at most one Registry holding the packages published
// there, in publish order. A publish runs these steps and stops at the
// first failure:
//
//  1. Authorization: only exempt framework accounts publish on production
//  2. Dependency resolution into an allow-list of (account, module) pairs
//  3. Coexistence: module names are unique across the account's packages
//  4. Upgrade rules when the package name already exists
//  5. Commit through ReplaceOrAppend and Store.Save
//  6. Hand-off to the Loader
//
// Components:
//   - Store / MemoryStore: keyed address -> registry state
//   - Publisher: runs the publish pipeline
//   - ResolveDependencies, CheckCoexistence, ValidateUpgrade: the checks
//
// The package holds no locks. Callers serialize publishes touching the same
// account and discard writes when Publish fails (see the ledger package).
//
// Example Usage:
//
//	pub := registry.NewPublisher(network.Devnet, loader.NewMemory(), registry.UpgradeRules{}, logger)
//	allowed, err := pub.Publish(ctx, store, addr, &pkg, code)
//	if errors.Is(err, registry.ErrWeakerPolicy) {
//	    // ...
//	}
package registry
