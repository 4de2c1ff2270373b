package ledger

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// keyedLocks hands out one lock per address. Locks are channels so waiting
// can be cancelled through the context.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[types.Address]*addrLock
}

type addrLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[types.Address]*addrLock)}
}

// acquire locks every address in order. keys must be sorted and unique.
func (k *keyedLocks) acquire(ctx context.Context, keys []types.Address) (func(), error) {
	held := make([]types.Address, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.unlock(held[i])
		}
	}

	for _, key := range keys {
		l := k.ref(key)
		select {
		case l.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			k.unref(key)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (k *keyedLocks) ref(key types.Address) *addrLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &addrLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *keyedLocks) unref(key types.Address) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocks) unlock(key types.Address) {
	k.mu.Lock()
	l := k.locks[key]
	k.mu.Unlock()
	<-l.ch
	k.unref(key)
}

// size is the number of addresses currently locked or waited on
func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
