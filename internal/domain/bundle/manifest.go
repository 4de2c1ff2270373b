package bundle

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// ManifestFile is the package manifest name inside a package directory
const ManifestFile = "Package.toml"

// Manifest is the TOML package manifest
//
//	[package]
//	name = "LibraFramework"
//	upgrade_policy = "compatible"
//	modules = ["coin", "account"]
//
//	[dependencies]
//	MoveStdlib = { account = "0x1" }
type Manifest struct {
	Package      ManifestPackage               `toml:"package"`
	Dependencies map[string]ManifestDependency `toml:"dependencies"`
}

// ManifestPackage is the [package] table
type ManifestPackage struct {
	Name          string       `toml:"name"`
	UpgradePolicy types.Policy `toml:"upgrade_policy"`
	SourceDigest  string       `toml:"source_digest"`
	// Modules fixes module order. When empty, modules are taken from the
	// bytecode directory in name order.
	Modules []string `toml:"modules"`
}

// ManifestDependency locates a dependency package
type ManifestDependency struct {
	Account types.Address `toml:"account"`
	// Package overrides the table key as the dependency's package name
	Package string `toml:"package"`
}

// ParseManifest decodes a Package.toml
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%s: package.name is required", ManifestFile)
	}
	return &m, nil
}

// Deps returns the dependencies sorted by package name
func (m *Manifest) Deps() []types.DepRef {
	deps := make([]types.DepRef, 0, len(m.Dependencies))
	for key, d := range m.Dependencies {
		name := d.Package
		if name == "" {
			name = key
		}
		deps = append(deps, types.DepRef{Account: d.Account, PackageName: name})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].PackageName != deps[j].PackageName {
			return deps[i].PackageName < deps[j].PackageName
		}
		return deps[i].Account.Compare(deps[j].Account) < 0
	})
	return deps
}
