package registry

import "errors"

// Publish failures. Every rule violation aborts the enclosing transaction;
// none of them are retried.
var (
	ErrNotAComputePlatform      = errors.New("not a compute platform")
	ErrModuleNameClash          = errors.New("module name clash")
	ErrImmutablePackage         = errors.New("package is immutable")
	ErrWeakerPolicy             = errors.New("upgrade policy is weaker than the published one")
	ErrModuleMissing            = errors.New("module missing from upgrade")
	ErrDependencyMissing        = errors.New("dependency missing")
	ErrArbitraryDepCrossAddress = errors.New("arbitrary policy dependency at another address")
)

// Abort codes reported for each failure kind
const (
	CodeModuleNameClash          uint64 = 1
	CodeImmutablePackage         uint64 = 2
	CodeWeakerPolicy             uint64 = 3
	CodeModuleMissing            uint64 = 4
	CodeDependencyMissing        uint64 = 5
	CodeArbitraryDepCrossAddress uint64 = 7
	CodeNotAComputePlatform      uint64 = 10
)

type errorKind struct {
	err  error
	name string
	code uint64
}

var kinds = []errorKind{
	{ErrModuleNameClash, "module_name_clash", CodeModuleNameClash},
	{ErrImmutablePackage, "immutable_package", CodeImmutablePackage},
	{ErrWeakerPolicy, "weaker_policy", CodeWeakerPolicy},
	{ErrModuleMissing, "module_missing", CodeModuleMissing},
	{ErrDependencyMissing, "dependency_missing", CodeDependencyMissing},
	{ErrArbitraryDepCrossAddress, "arbitrary_dep_cross_address", CodeArbitraryDepCrossAddress},
	{ErrNotAComputePlatform, "not_a_compute_platform", CodeNotAComputePlatform},
}

// Code returns the abort code for a registry rule violation, or 0 when err
// is not one
func Code(err error) uint64 {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return 0
}

// Kind returns the snake_case failure name, or "" when err is not a rule
// violation
func Kind(err error) string {
	if k, ok := lookup(err); ok {
		return k.name
	}
	return ""
}

// IsRuleViolation reports whether err is one of the registry's own failures
func IsRuleViolation(err error) bool {
	_, ok := lookup(err)
	return ok
}

func lookup(err error) (errorKind, bool) {
	if err == nil {
		return errorKind{}, false
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return errorKind{}, false
}

// ErrorForKind returns the sentinel named by a Kind string, or nil
func ErrorForKind(kind string) error {
	for _, k := range kinds {
		if k.name == kind {
			return k.err
		}
	}
	return nil
}
