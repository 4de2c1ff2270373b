// Package types provides shared data structures for the code registry.
//
// This package defines the persisted registry layout and the values that
// flow between the registry core, its collaborators and the API.
//
// Core Types:
//   - Address: 32-byte account address with Move-style hex literals
//   - Policy: upgrade policy (arbitrary < compatible < immutable)
//   - Registry: all packages published at one account
//   - Package: named, versioned unit of code with modules and dependencies
//   - Module: smallest unit of loadable code
//   - DepRef: reference to a package at some account
//   - AllowedDep: resolved (account, module) link permission
//
// Persisted layout:
//
//	Address -> Registry -> []Package -> []Module
//
// Example Usage:
//
//	reg := types.NewRegistry(types.MustParseAddress("0xcafe"))
//	pkg := types.Package{
//	    Name:          "Coin",
//	    UpgradePolicy: types.PolicyCompatible,
//	    Modules:       []types.Module{{Name: "coin"}},
//	}
package types
