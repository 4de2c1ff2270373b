package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// ErrInvalidInput marks malformed caller input, as opposed to a registry
// rule violation
var ErrInvalidInput = errors.New("invalid input")

// Size limits
const (
	MaxJSONSize        = 32 * 1024 * 1024 // publish bodies carry base64 bytecode
	MaxModuleSize      = 4 * 1024 * 1024
	MaxModulesPerPkg   = 512
	MaxDepsPerPkg      = 256
	MaxIdentifierLen   = 255
	MaxManifestSize    = 256 * 1024
	MaxSourceDigestLen = 128
)

var (
	// IdentifierPattern matches module identifiers
	IdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// PackageNamePattern also allows hyphens, as in "move-stdlib"
	PackageNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// JSONSizeValidator validates JSON payload limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a validator with the given byte limit
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator sized for publish requests
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// MaxSize returns the byte limit
func (v *JSONSizeValidator) MaxSize() int {
	return v.maxSize
}

// ValidateSize checks the payload length
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	if len(data) > v.maxSize {
		return fmt.Errorf("%w: JSON size %d bytes exceeds maximum %d bytes", ErrInvalidInput, len(data), v.maxSize)
	}
	return nil
}

// ValidateJSON checks size and well-formedness
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	if err := v.ValidateSize(data); err != nil {
		return err
	}
	if !sonic.Valid(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidInput)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidInput, fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalidInput, fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalidInput, fieldName)
	}
	return nil
}

// ValidateIdentifier validates a module name
func ValidateIdentifier(name, fieldName string) error {
	if err := ValidateString(name, fieldName, 1, MaxIdentifierLen, true); err != nil {
		return err
	}
	if !IdentifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %s %q is not a valid identifier", ErrInvalidInput, fieldName, name)
	}
	return nil
}

// ValidatePackageName validates a package name
func ValidatePackageName(name string) error {
	if err := ValidateString(name, "package name", 1, MaxIdentifierLen, true); err != nil {
		return err
	}
	if !PackageNamePattern.MatchString(name) {
		return fmt.Errorf("%w: package name %q contains invalid characters", ErrInvalidInput, name)
	}
	return nil
}

// ValidateCandidate checks the shape of a package submitted for publish.
// Registry rules (clashes, policies, dependencies) are checked later by the
// registry itself.
func ValidateCandidate(pkg *types.Package, code [][]byte) error {
	if err := ValidatePackageName(pkg.Name); err != nil {
		return err
	}
	if !pkg.UpgradePolicy.Valid() {
		return fmt.Errorf("%w: unknown upgrade policy %d", ErrInvalidInput, pkg.UpgradePolicy)
	}
	if err := ValidateString(pkg.SourceDigest, "source digest", 0, MaxSourceDigestLen, false); err != nil {
		return err
	}
	if len(pkg.Manifest) > MaxManifestSize {
		return fmt.Errorf("%w: manifest exceeds %d bytes", ErrInvalidInput, MaxManifestSize)
	}
	if len(pkg.Modules) > MaxModulesPerPkg {
		return fmt.Errorf("%w: too many modules (maximum %d)", ErrInvalidInput, MaxModulesPerPkg)
	}
	if len(pkg.Deps) > MaxDepsPerPkg {
		return fmt.Errorf("%w: too many dependencies (maximum %d)", ErrInvalidInput, MaxDepsPerPkg)
	}

	seen := make(map[string]struct{}, len(pkg.Modules))
	for i, m := range pkg.Modules {
		if err := ValidateIdentifier(m.Name, fmt.Sprintf("module[%d]", i)); err != nil {
			return err
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: module %q declared twice", ErrInvalidInput, m.Name)
		}
		seen[m.Name] = struct{}{}
	}

	for i, d := range pkg.Deps {
		if err := ValidatePackageName(d.PackageName); err != nil {
			return fmt.Errorf("dependency[%d]: %w", i, err)
		}
	}

	for i, blob := range code {
		if len(blob) > MaxModuleSize {
			return fmt.Errorf("%w: code blob %d exceeds %d bytes", ErrInvalidInput, i, MaxModuleSize)
		}
	}
	return nil
}
