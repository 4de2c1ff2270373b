package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Tx is a registry.Store over a staged write set. Reads see the
// transaction's own writes first, then committed state.
type Tx struct {
	backing registry.Store
	touched map[types.Address]struct{}
	writes  map[types.Address]*types.Registry
	// run in order after a successful commit
	onCommit []func()
}

type txKey struct{}

// OnCommit defers fn until the transaction running under ctx has
// committed; it is dropped if the transaction aborts. Outside a
// transaction fn runs immediately.
func OnCommit(ctx context.Context, fn func()) {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok {
		tx.onCommit = append(tx.onCommit, fn)
		return
	}
	fn()
}

var _ registry.Store = (*Tx)(nil)

func newTx(backing registry.Store, touched []types.Address) *Tx {
	tx := &Tx{
		backing: backing,
		touched: make(map[types.Address]struct{}, len(touched)),
		writes:  make(map[types.Address]*types.Registry),
	}
	for _, a := range touched {
		tx.touched[a] = struct{}{}
	}
	return tx
}

// Load returns a copy of the registry at addr
func (tx *Tx) Load(ctx context.Context, addr types.Address) (*types.Registry, bool, error) {
	if reg, ok := tx.writes[addr]; ok {
		return reg.Clone(), true, nil
	}
	return tx.backing.Load(ctx, addr)
}

// Save stages reg. It reaches the backing store only on commit.
func (tx *Tx) Save(_ context.Context, reg *types.Registry) error {
	if _, ok := tx.touched[reg.Address]; !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredWrite, reg.Address)
	}
	tx.writes[reg.Address] = reg.Clone()
	return nil
}

// Addresses lists committed and staged accounts
func (tx *Tx) Addresses(ctx context.Context) ([]types.Address, error) {
	committed, err := tx.backing.Addresses(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[types.Address]struct{}, len(committed))
	for _, a := range committed {
		seen[a] = struct{}{}
	}
	for a := range tx.writes {
		if _, ok := seen[a]; !ok {
			committed = append(committed, a)
		}
	}
	sort.Slice(committed, func(i, j int) bool { return committed[i].Compare(committed[j]) < 0 })
	return committed, nil
}

// Pending reports how many registries the transaction has staged
func (tx *Tx) Pending() int {
	return len(tx.writes)
}

func (tx *Tx) writeSet() []*types.Registry {
	out := make([]*types.Registry, 0, len(tx.writes))
	for _, reg := range tx.writes {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Compare(out[j].Address) < 0 })
	return out
}
