// Package network names the chains a registry can run on.
package network

import (
	"fmt"
	"strings"
)

// Chain is a release target
type Chain string

const (
	Head    Chain = "head"
	Devnet  Chain = "devnet"
	Testnet Chain = "testnet"
	Mainnet Chain = "mainnet"
)

// Chains lists every known chain
func Chains() []Chain {
	return []Chain{Head, Devnet, Testnet, Mainnet}
}

// Parse reads a chain name, case-insensitively
func Parse(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Chains() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown chain %q (expected head, devnet, testnet or mainnet)", s)
}

// IsNonProduction reports whether general accounts may publish code.
// Only mainnet restricts publishing to framework accounts.
func (c Chain) IsNonProduction() bool {
	return c != Mainnet
}

func (c Chain) String() string {
	return string(c)
}
