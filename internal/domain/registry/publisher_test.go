package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

func newPublisher(network NetworkMode, loader Loader) *Publisher {
	return NewPublisher(network, loader, UpgradeRules{}, logging.NewNop())
}

func publish(t *testing.T, p *Publisher, store Store, addr types.Address, candidate *types.Package) ([]types.AllowedDep, error) {
	t.Helper()
	return p.Publish(context.Background(), store, addr, candidate, codeFor(candidate))
}

func loadPackage(t *testing.T, store Store, addr types.Address, name string) types.Package {
	t.Helper()
	reg, ok, err := store.Load(context.Background(), addr)
	require.NoError(t, err)
	require.True(t, ok)
	idx, found := FindIndexByName(reg, name)
	require.True(t, found)
	return reg.Packages[idx]
}

func TestPublishFirstVersion(t *testing.T) {
	store := NewMemoryStore()
	p := newPublisher(nonProduction, acceptingLoader())

	candidate := pkg("Coin", types.PolicyCompatible, "coin")
	candidate.UpgradeNumber = 99

	_, err := publish(t, p, store, alice, candidate)
	require.NoError(t, err)

	reg, ok, err := store.Load(context.Background(), alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, reg.Packages, 1)
	assert.Equal(t, uint64(0), reg.Packages[0].UpgradeNumber, "caller supplied upgrade number is ignored")
	assert.Equal(t, uint64(99), candidate.UpgradeNumber, "candidate is not mutated")
}

func TestPublishMonotonicVersioning(t *testing.T) {
	store := NewMemoryStore()
	p := newPublisher(nonProduction, acceptingLoader())

	for i := 0; i < 5; i++ {
		_, err := publish(t, p, store, alice, pkg("Coin", types.PolicyCompatible, "coin"))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), loadPackage(t, store, alice, "Coin").UpgradeNumber)
	}

	reg, _, err := store.Load(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, reg.Packages, 1)
}

func TestPublishPolicyMonotonicity(t *testing.T) {
	tests := []struct {
		name    string
		from    types.Policy
		to      types.Policy
		wantErr error
	}{
		{"arbitrary to compatible", types.PolicyArbitrary, types.PolicyCompatible, nil},
		{"compatible to compatible", types.PolicyCompatible, types.PolicyCompatible, nil},
		{"compatible to immutable", types.PolicyCompatible, types.PolicyImmutable, nil},
		{"compatible to arbitrary", types.PolicyCompatible, types.PolicyArbitrary, ErrWeakerPolicy},
		{"immutable to immutable", types.PolicyImmutable, types.PolicyImmutable, ErrImmutablePackage},
		{"immutable to arbitrary", types.PolicyImmutable, types.PolicyArbitrary, ErrImmutablePackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			p := newPublisher(nonProduction, acceptingLoader())

			_, err := publish(t, p, store, alice, pkg("P", tt.from, "m"))
			require.NoError(t, err)

			_, err = publish(t, p, store, alice, pkg("P", tt.to, "m"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, loadPackage(t, store, alice, "P").UpgradePolicy)
				return
			}
			require.NoError(t, err)
			stored := loadPackage(t, store, alice, "P")
			assert.Equal(t, tt.to, stored.UpgradePolicy)
			assert.Equal(t, uint64(1), stored.UpgradeNumber)
		})
	}
}

func TestPublishImmutableLock(t *testing.T) {
	store := NewMemoryStore()
	p := newPublisher(nonProduction, acceptingLoader())

	_, err := publish(t, p, store, alice, pkg("Frozen", types.PolicyImmutable, "ice"))
	require.NoError(t, err)

	for _, candidate := range []*types.Package{
		pkg("Frozen", types.PolicyImmutable, "ice"),
		pkg("Frozen", types.PolicyImmutable, "ice", "more"),
		pkg("Frozen", types.PolicyCompatible),
	} {
		_, err := publish(t, p, store, alice, candidate)
		assert.ErrorIs(t, err, ErrImmutablePackage)
	}
}

func TestPublishCrossPackageIsolation(t *testing.T) {
	store := NewMemoryStore()
	p := newPublisher(nonProduction, acceptingLoader())

	_, err := publish(t, p, store, alice, pkg("A1", types.PolicyCompatible, "shared", "own"))
	require.NoError(t, err)

	_, err = publish(t, p, store, alice, pkg("B", types.PolicyCompatible, "shared"))
	require.ErrorIs(t, err, ErrModuleNameClash)
	assert.Equal(t, CodeModuleNameClash, Code(err))

	_, err = publish(t, p, store, alice, pkg("A1", types.PolicyCompatible, "shared", "own"))
	assert.NoError(t, err)

	_, err = publish(t, p, store, bob, pkg("B", types.PolicyCompatible, "shared"))
	assert.NoError(t, err, "module names are scoped to one account")
}

func TestPublishHandsOffToLoader(t *testing.T) {
	store := NewMemoryStore()
	seed(store, bob, pkg("pkgX", types.PolicyCompatible, "x1", "x2"))

	candidate := withDeps(pkg("App", types.PolicyImmutable, "main", "util"),
		dep(bob, "pkgX"), dep(types.FrameworkAddress, "MoveStdlib"))

	loader := &mockLoader{}
	loader.On("Load", mock.Anything, LoadRequest{
		Publisher:       alice,
		Package:         "App",
		ExpectedModules: []string{"main", "util"},
		AllowedDeps: []types.AllowedDep{
			{Account: bob, ModuleName: "x1"},
			{Account: bob, ModuleName: "x2"},
			{Account: types.FrameworkAddress, ModuleName: types.Wildcard},
		},
		Code:   [][]byte{[]byte("main"), []byte("util")},
		Policy: types.PolicyImmutable,
	}).Return(nil).Once()

	allowed, err := publish(t, newPublisher(nonProduction, loader), store, alice, candidate)
	require.NoError(t, err)
	assert.Len(t, allowed, 3)
	loader.AssertExpectations(t)
}

func TestPublishLoaderErrorSurfaces(t *testing.T) {
	store := NewMemoryStore()
	rejected := errors.New("bytecode verification failed")

	loader := &mockLoader{}
	loader.On("Load", mock.Anything, mock.Anything).Return(rejected)

	_, err := publish(t, newPublisher(nonProduction, loader), store, alice, pkg("Bad", types.PolicyCompatible, "m"))
	require.ErrorIs(t, err, rejected)
	assert.False(t, IsRuleViolation(err))
}

func TestPublishAuthorizationGate(t *testing.T) {
	store := NewMemoryStore()
	seed(store, alice, pkg("A1", types.PolicyCompatible, "shared"))

	loader := &mockLoader{}
	p := newPublisher(production, loader)

	// Would clash and has a missing dependency, yet authorization fails first.
	candidate := withDeps(pkg("B", types.PolicyCompatible, "shared"), dep(carol, "Nowhere"))
	_, err := publish(t, p, store, alice, candidate)
	require.ErrorIs(t, err, ErrNotAComputePlatform)
	assert.Equal(t, "not_a_compute_platform", Kind(err))
	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)

	loader.On("Load", mock.Anything, mock.Anything).Return(nil)
	_, err = publish(t, p, store, types.FrameworkAddress, pkg("MoveStdlib", types.PolicyCompatible, "vector"))
	assert.NoError(t, err, "framework accounts publish on production")
}

func TestPublishFailureLeavesStoreUntouched(t *testing.T) {
	store := NewMemoryStore()
	p := newPublisher(nonProduction, acceptingLoader())

	_, err := publish(t, p, store, alice, withDeps(pkg("App", types.PolicyCompatible, "main"), dep(bob, "Missing")))
	require.ErrorIs(t, err, ErrDependencyMissing)

	_, ok, err := store.Load(context.Background(), alice)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublishModuleRetentionRule(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(nonProduction, acceptingLoader(), UpgradeRules{RequireModuleRetention: true}, nil)

	_, err := publish(t, p, store, alice, pkg("P", types.PolicyCompatible, "a", "b"))
	require.NoError(t, err)

	_, err = publish(t, p, store, alice, pkg("P", types.PolicyCompatible, "a"))
	assert.ErrorIs(t, err, ErrModuleMissing)
	assert.Equal(t, CodeModuleMissing, Code(err))
}
