package types

// Wildcard as an AllowedDep module name stands for every module of the account
const Wildcard = "*"

// Extension is an opaque, tagged payload carried alongside packages and
// modules. The registry stores it but never looks inside.
type Extension struct {
	Tag  string `json:"tag"`
	Data []byte `json:"data,omitempty"`
}

// Module is the smallest unit of loadable code within a package
type Module struct {
	Name      string     `json:"name"`
	Source    []byte     `json:"source,omitempty"`
	SourceMap []byte     `json:"source_map,omitempty"`
	Extension *Extension `json:"extension,omitempty"`
}

// DepRef names a package at another (or the same) account
type DepRef struct {
	Account     Address `json:"account"`
	PackageName string  `json:"package_name"`
}

// Package is a named, versioned unit of code installed at an account
type Package struct {
	Name          string     `json:"name"`
	UpgradePolicy Policy     `json:"upgrade_policy"`
	UpgradeNumber uint64     `json:"upgrade_number"`
	SourceDigest  string     `json:"source_digest"`
	Manifest      []byte     `json:"manifest,omitempty"`
	Modules       []Module   `json:"modules"`
	Deps          []DepRef   `json:"deps"`
	Extension     *Extension `json:"extension,omitempty"`
}

// ModuleNames returns module names in declaration order
func (p *Package) ModuleNames() []string {
	names := make([]string, len(p.Modules))
	for i, m := range p.Modules {
		names[i] = m.Name
	}
	return names
}

// Clone returns a deep copy of the package
func (p *Package) Clone() Package {
	out := *p
	out.Manifest = cloneBytes(p.Manifest)
	out.Extension = p.Extension.clone()

	if p.Modules != nil {
		out.Modules = make([]Module, len(p.Modules))
		for i, m := range p.Modules {
			out.Modules[i] = Module{
				Name:      m.Name,
				Source:    cloneBytes(m.Source),
				SourceMap: cloneBytes(m.SourceMap),
				Extension: m.Extension.clone(),
			}
		}
	}
	if p.Deps != nil {
		out.Deps = append([]DepRef(nil), p.Deps...)
	}
	return out
}

// ToMetadata extracts the summary view of a package
func (p *Package) ToMetadata() PackageMetadata {
	return PackageMetadata{
		Name:          p.Name,
		UpgradePolicy: p.UpgradePolicy,
		UpgradeNumber: p.UpgradeNumber,
		SourceDigest:  p.SourceDigest,
		Modules:       p.ModuleNames(),
		Deps:          p.Deps,
	}
}

// Registry is the set of packages published at one account, in publish order
type Registry struct {
	Address  Address   `json:"address"`
	Packages []Package `json:"packages"`
}

// NewRegistry returns an empty registry for addr
func NewRegistry(addr Address) *Registry {
	return &Registry{Address: addr, Packages: []Package{}}
}

// Clone returns a deep copy of the registry
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	out := &Registry{Address: r.Address, Packages: make([]Package, len(r.Packages))}
	for i := range r.Packages {
		out.Packages[i] = r.Packages[i].Clone()
	}
	return out
}

// ModuleCount returns the number of modules across all packages
func (r *Registry) ModuleCount() int {
	n := 0
	for _, p := range r.Packages {
		n += len(p.Modules)
	}
	return n
}

// AllowedDep is one (account, module) pair a package may link against
type AllowedDep struct {
	Account    Address `json:"account"`
	ModuleName string  `json:"module_name"`
}

// IsWildcard reports whether the entry covers every module of the account
func (d AllowedDep) IsWildcard() bool {
	return d.ModuleName == Wildcard
}

// PackageMetadata contains summary information about a package
type PackageMetadata struct {
	Name          string   `json:"name"`
	UpgradePolicy Policy   `json:"upgrade_policy"`
	UpgradeNumber uint64   `json:"upgrade_number"`
	SourceDigest  string   `json:"source_digest"`
	Modules       []string `json:"modules"`
	Deps          []DepRef `json:"deps"`
}

// RegistryStats contains registry statistics
type RegistryStats struct {
	Registries int            `json:"registries"`
	Packages   int            `json:"packages"`
	Modules    int            `json:"modules"`
	ByPolicy   map[string]int `json:"by_policy"`
}

func (e *Extension) clone() *Extension {
	if e == nil {
		return nil
	}
	return &Extension{Tag: e.Tag, Data: cloneBytes(e.Data)}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
