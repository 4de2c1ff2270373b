package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// ErrUndeclaredWrite is returned when a transaction saves a registry at an
// address it did not declare as touched
var ErrUndeclaredWrite = errors.New("write to undeclared address")

// Committer writes a batch of registries atomically
type Committer interface {
	Commit(ctx context.Context, regs []*types.Registry) error
}

// TxReceipt describes a finished transaction
type TxReceipt struct {
	ID        string          `json:"id"`
	Touched   []types.Address `json:"touched"`
	Written   []types.Address `json:"written"`
	Committed bool            `json:"committed"`
	Duration  time.Duration   `json:"duration"`
}

// Ledger serializes transactions that touch the same accounts and applies
// their writes all at once, or not at all
type Ledger struct {
	backing registry.Store
	locks   *keyedLocks
	logger  *logging.Logger
}

// New creates a ledger over a backing store
func New(backing registry.Store, logger *logging.Logger) *Ledger {
	return &Ledger{
		backing: backing,
		locks:   newKeyedLocks(),
		logger:  logger.OrNop().Component("ledger"),
	}
}

// Store returns the committed state
func (l *Ledger) Store() registry.Store {
	return l.backing
}

// Execute runs fn inside a transaction holding exclusive access to every
// touched address. Writes made through the Tx are committed only when fn
// returns nil.
func (l *Ledger) Execute(ctx context.Context, touched []types.Address, fn func(ctx context.Context, tx *Tx) error) (TxReceipt, error) {
	start := time.Now()
	keys := normalize(touched)
	receipt := TxReceipt{ID: uuid.NewString(), Touched: keys}
	log := l.logger.With(zap.String("tx", receipt.ID))

	release, err := l.locks.acquire(ctx, keys)
	if err != nil {
		receipt.Duration = time.Since(start)
		return receipt, fmt.Errorf("tx %s: %w", receipt.ID, err)
	}
	defer release()

	tx := newTx(l.backing, keys)
	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		receipt.Duration = time.Since(start)
		log.Debug("transaction aborted", zap.Error(err), zap.Duration("duration", receipt.Duration))
		return receipt, err
	}

	writes := tx.writeSet()
	if err := l.commit(ctx, writes); err != nil {
		receipt.Duration = time.Since(start)
		log.Error("commit failed", zap.Error(err))
		return receipt, fmt.Errorf("tx %s commit: %w", receipt.ID, err)
	}

	for _, reg := range writes {
		receipt.Written = append(receipt.Written, reg.Address)
	}
	receipt.Committed = true
	for _, hook := range tx.onCommit {
		hook()
	}
	receipt.Duration = time.Since(start)

	log.Debug("transaction committed",
		zap.Int("writes", len(writes)),
		zap.Duration("duration", receipt.Duration),
	)
	return receipt, nil
}

func (l *Ledger) commit(ctx context.Context, writes []*types.Registry) error {
	if len(writes) == 0 {
		return nil
	}
	if c, ok := l.backing.(Committer); ok {
		return c.Commit(ctx, writes)
	}
	for _, reg := range writes {
		if err := l.backing.Save(ctx, reg); err != nil {
			return err
		}
	}
	return nil
}

// normalize sorts and dedupes addresses so locks are always taken in the
// same order
func normalize(addrs []types.Address) []types.Address {
	out := append([]types.Address(nil), addrs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })

	n := 0
	for i, a := range out {
		if i > 0 && a == out[n-1] {
			continue
		}
		out[n] = a
		n++
	}
	return out[:n]
}
