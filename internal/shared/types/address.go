package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an account address
const AddressLength = 32

// Address identifies an account in global state
type Address [AddressLength]byte

// FrameworkAddress is the account that hosts the framework packages
var FrameworkAddress = AddressFromUint64(1)

// ParseAddress parses a hex literal such as "0x1" or a full 64-digit address.
// The 0x prefix is optional and short forms are left-padded with zeros.
func ParseAddress(s string) (Address, error) {
	var a Address

	digits := strings.TrimSpace(s)
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	if digits == "" {
		return a, fmt.Errorf("invalid address %q: empty", s)
	}
	if len(digits) > AddressLength*2 {
		return a, fmt.Errorf("invalid address %q: more than %d hex digits", s, AddressLength*2)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(a[AddressLength-len(raw):], raw)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromUint64 builds a small numeric address (0x1, 0x2, ...)
func AddressFromUint64(v uint64) Address {
	var a Address
	for i := AddressLength - 1; i >= AddressLength-8; i-- {
		a[i] = byte(v)
		v >>= 8
	}
	return a
}

// String returns the short hex literal form, e.g. "0x1"
func (a Address) String() string {
	trimmed := strings.TrimLeft(hex.EncodeToString(a[:]), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// Long returns the zero-padded 64-digit form
func (a Address) Long() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether a is the zero address
func (a Address) IsZero() bool {
	return a == Address{}
}

// Compare orders addresses by their big-endian byte value
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// IsPolicyExempt reports whether addr is one of the reserved framework
// accounts 0x1 through 0xa. Exempt accounts may publish on every network and
// are depended on by wildcard rather than per module.
func IsPolicyExempt(addr Address) bool {
	for _, b := range addr[:AddressLength-1] {
		if b != 0 {
			return false
		}
	}
	last := addr[AddressLength-1]
	return last >= 0x1 && last <= 0xa
}
