package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndKind(t *testing.T) {
	tests := []struct {
		err  error
		code uint64
		kind string
	}{
		{ErrModuleNameClash, 1, "module_name_clash"},
		{ErrImmutablePackage, 2, "immutable_package"},
		{ErrWeakerPolicy, 3, "weaker_policy"},
		{ErrModuleMissing, 4, "module_missing"},
		{ErrDependencyMissing, 5, "dependency_missing"},
		{ErrArbitraryDepCrossAddress, 7, "arbitrary_dep_cross_address"},
		{ErrNotAComputePlatform, 10, "not_a_compute_platform"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			wrapped := fmt.Errorf("publish: %w", fmt.Errorf("%w: detail", tt.err))
			assert.Equal(t, tt.code, Code(wrapped))
			assert.Equal(t, tt.kind, Kind(wrapped))
			assert.True(t, IsRuleViolation(wrapped))
		})
	}
}

func TestCodeUnknown(t *testing.T) {
	assert.Equal(t, uint64(0), Code(errors.New("other")))
	assert.Equal(t, "", Kind(nil))
	assert.False(t, IsRuleViolation(nil))
}

func TestErrorForKind(t *testing.T) {
	for _, err := range []error{ErrModuleNameClash, ErrWeakerPolicy, ErrNotAComputePlatform} {
		assert.Same(t, err, ErrorForKind(Kind(err)))
	}
	assert.Nil(t, ErrorForKind("loader_rejected"))
}
