package types

import (
	"fmt"
	"strings"
)

// Policy is a package upgrade policy. Values are totally ordered:
// Arbitrary < Compatible < Immutable.
type Policy uint8

const (
	PolicyArbitrary Policy = iota
	PolicyCompatible
	PolicyImmutable
)

// String returns the lowercase policy name
func (p Policy) String() string {
	switch p {
	case PolicyArbitrary:
		return "arbitrary"
	case PolicyCompatible:
		return "compatible"
	case PolicyImmutable:
		return "immutable"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the three known policies
func (p Policy) Valid() bool {
	return p <= PolicyImmutable
}

// ParsePolicy parses a policy name, case-insensitively
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arbitrary":
		return PolicyArbitrary, nil
	case "compatible":
		return PolicyCompatible, nil
	case "immutable":
		return PolicyImmutable, nil
	default:
		return 0, fmt.Errorf("invalid upgrade policy %q: must be arbitrary, compatible or immutable", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid upgrade policy %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
