package code

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/coderegistry/internal/domain/ledger"
	"github.com/GriffinCanCode/coderegistry/internal/domain/loader"
	"github.com/GriffinCanCode/coderegistry/internal/domain/network"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

var (
	alice = types.MustParseAddress("0xa11ce")
	bob   = types.MustParseAddress("0xb0b")
)

type fixture struct {
	store   *registry.MemoryStore
	loader  *loader.Memory
	metrics *monitoring.Metrics
	mgr     *Manager
}

func newFixture(chain network.Chain, l registry.Loader) *fixture {
	store := registry.NewMemoryStore()
	mem := loader.NewMemory()
	if l == nil {
		l = mem
	}
	metrics := monitoring.NewMetrics()
	logger := logging.NewNop()

	pub := registry.NewPublisher(chain, l, registry.UpgradeRules{}, logger)
	mgr := NewManager(ledger.New(store, logger), pub, logger).WithMetrics(metrics)
	return &fixture{store: store, loader: mem, metrics: metrics, mgr: mgr}
}

func request(addr types.Address, name string, p types.Policy, modules ...string) PublishRequest {
	req := PublishRequest{Publisher: addr, Package: types.Package{Name: name, UpgradePolicy: p}}
	for _, m := range modules {
		req.Package.Modules = append(req.Package.Modules, types.Module{Name: m})
		req.Code = append(req.Code, []byte("code:"+m))
	}
	return req
}

func TestPublishAndQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, nil)

	res, err := f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyCompatible, "coin", "balance"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.UpgradeNumber)
	assert.NotEmpty(t, res.TxID)
	assert.Len(t, res.SourceDigest, 64, "digest computed when missing")

	res, err = f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyImmutable, "coin", "balance"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.UpgradeNumber)
	assert.Equal(t, types.PolicyImmutable, res.Policy)

	pkg, err := f.mgr.Package(ctx, alice, "Coin")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pkg.UpgradeNumber)

	assert.Equal(t, []string{"balance", "coin"}, f.loader.Installed(alice))

	accounts, err := f.mgr.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{alice}, accounts)
}

func TestPublishWithDependencies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Testnet, nil)

	_, err := f.mgr.Publish(ctx, request(bob, "Lib", types.PolicyCompatible, "lib_a", "lib_b"))
	require.NoError(t, err)

	req := request(alice, "App", types.PolicyCompatible, "app")
	req.Package.Deps = []types.DepRef{
		{Account: bob, PackageName: "Lib"},
		{Account: types.FrameworkAddress, PackageName: "LibraFramework"},
	}

	res, err := f.mgr.Publish(ctx, req)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.AllowedDep{
		{Account: bob, ModuleName: "lib_a"},
		{Account: bob, ModuleName: "lib_b"},
		{Account: types.FrameworkAddress, ModuleName: types.Wildcard},
	}, res.AllowedDeps)
}

func TestPublishRuleViolationIsRolledBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, nil)

	_, err := f.mgr.Publish(ctx, request(alice, "A1", types.PolicyCompatible, "shared"))
	require.NoError(t, err)

	_, err = f.mgr.Publish(ctx, request(alice, "B", types.PolicyCompatible, "shared"))
	require.ErrorIs(t, err, registry.ErrModuleNameClash)

	_, err = f.mgr.Package(ctx, alice, "B")
	assert.ErrorIs(t, err, ErrPackageNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PublishTotal.WithLabelValues("aborted", "module_name_clash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transactions.WithLabelValues("aborted")))
}

type rejectingLoader struct{}

func (rejectingLoader) Load(context.Context, registry.LoadRequest) error {
	return errors.New("verifier: type mismatch")
}

func TestPublishLoaderRejectionRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, rejectingLoader{})

	_, err := f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyCompatible, "coin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")

	_, err = f.mgr.Registry(ctx, alice)
	assert.ErrorIs(t, err, ErrAccountNotFound, "registry write discarded with the transaction")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PublishTotal.WithLabelValues("aborted", "other")))
}

func TestPublishMainnetGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Mainnet, nil)

	_, err := f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyCompatible, "coin"))
	assert.ErrorIs(t, err, registry.ErrNotAComputePlatform)

	_, err = f.mgr.Publish(ctx, request(types.FrameworkAddress, "MoveStdlib", types.PolicyCompatible, "vector"))
	assert.NoError(t, err)
}

func TestPublishMainnetGateRunsBeforeShapeChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Mainnet, nil)
	rec := &recorder{}
	f.mgr.WithObserver(rec)

	dup := request(alice, "Coin", types.PolicyCompatible, "m", "m")
	_, err := f.mgr.Publish(ctx, dup)
	assert.ErrorIs(t, err, registry.ErrNotAComputePlatform)
	assert.NotErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.mgr.Publish(ctx, request(alice, "bad name!", types.PolicyCompatible, "coin"))
	assert.ErrorIs(t, err, registry.ErrNotAComputePlatform)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "not_a_compute_platform", rec.events[0].Kind)
	assert.Empty(t, f.loader.Installed(alice))
}

func TestPublishInvalidInput(t *testing.T) {
	f := newFixture(network.Devnet, nil)

	_, err := f.mgr.Publish(context.Background(), request(alice, "", types.PolicyCompatible, "coin"))
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.False(t, registry.IsRuleViolation(err))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, nil)

	_, err := f.mgr.Publish(ctx, request(alice, "A", types.PolicyCompatible, "a1", "a2"))
	require.NoError(t, err)
	_, err = f.mgr.Publish(ctx, request(alice, "B", types.PolicyImmutable, "b1"))
	require.NoError(t, err)
	_, err = f.mgr.Publish(ctx, request(bob, "C", types.PolicyArbitrary, "c1"))
	require.NoError(t, err)

	stats, err := f.mgr.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Registries)
	assert.Equal(t, 3, stats.Packages)
	assert.Equal(t, 4, stats.Modules)
	assert.Equal(t, map[string]int{"compatible": 1, "immutable": 1, "arbitrary": 1}, stats.ByPolicy)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Packages))
}

type recorder struct{ events []Event }

func (r *recorder) PublishObserved(ev Event) { r.events = append(r.events, ev) }

func TestPublishNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, nil)
	rec := &recorder{}
	f.mgr.WithObserver(rec)

	_, err := f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyImmutable, "coin"))
	require.NoError(t, err)
	_, err = f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyImmutable, "coin"))
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, EventPublished, rec.events[0].Type)
	assert.Equal(t, "immutable", rec.events[0].Policy)
	assert.NotZero(t, rec.events[0].Timestamp)

	assert.Equal(t, EventRejected, rec.events[1].Type)
	assert.Equal(t, "immutable_package", rec.events[1].Kind)
	assert.Equal(t, uint64(2), rec.events[1].AbortCode)
	assert.Equal(t, alice, rec.events[1].Publisher)
}

func TestUpgradeReplacesInstalledModules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(network.Devnet, nil)

	_, err := f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyCompatible, "coin", "balance"))
	require.NoError(t, err)
	_, err = f.mgr.Publish(ctx, request(alice, "Coin", types.PolicyCompatible, "coin"))
	require.NoError(t, err)

	assert.Equal(t, []string{"coin"}, f.loader.Installed(alice))
}
