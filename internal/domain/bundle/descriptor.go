package bundle

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// DescriptorFile is the conventional descriptor name inside a release
const DescriptorFile = "bundle.yaml"

// Descriptor lists the packages of a release in publish order
//
//	name: libra-framework-release
//	chain: testnet
//	packages:
//	  - account: "0x1"
//	    path: move-stdlib
//	  - account: "0x1"
//	    path: libra-framework
type Descriptor struct {
	Name     string            `yaml:"name"`
	Chain    string            `yaml:"chain,omitempty"`
	Packages []DescriptorEntry `yaml:"packages"`
}

// DescriptorEntry places one package directory at an account
type DescriptorEntry struct {
	Account types.Address `yaml:"account"`
	Path    string        `yaml:"path"`
}

// ParseDescriptor decodes and checks a YAML descriptor
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse bundle descriptor: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("bundle descriptor: name is required")
	}
	if len(d.Packages) == 0 {
		return nil, fmt.Errorf("bundle %s: no packages listed", d.Name)
	}
	for i, p := range d.Packages {
		if p.Path == "" {
			return nil, fmt.Errorf("bundle %s: package %d has no path", d.Name, i)
		}
	}
	return &d, nil
}
