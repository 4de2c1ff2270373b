package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Store is the keyed address -> registry state the publish path reads and
// writes. Callers own serialization: two publishes touching one address must
// not interleave.
type Store interface {
	Load(ctx context.Context, addr types.Address) (*types.Registry, bool, error)
	Save(ctx context.Context, reg *types.Registry) error
	Addresses(ctx context.Context) ([]types.Address, error)
}

// GetOrCreate returns the registry at addr, or a fresh empty one. A fresh
// registry is not persisted until it is saved.
func GetOrCreate(ctx context.Context, store Store, addr types.Address) (*types.Registry, error) {
	reg, ok, err := store.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewRegistry(addr), nil
	}
	return reg, nil
}

// FindIndexByName locates a package by name
func FindIndexByName(reg *types.Registry, name string) (int, bool) {
	for i := range reg.Packages {
		if reg.Packages[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// ReplaceOrAppend installs pkg in place when found, otherwise appends it.
// It is the only way packages enter a registry, so a name never appears twice.
func ReplaceOrAppend(reg *types.Registry, index int, found bool, pkg types.Package) {
	if found {
		reg.Packages[index] = pkg
		return
	}
	reg.Packages = append(reg.Packages, pkg)
}

// MemoryStore keeps registries in process memory
type MemoryStore struct {
	registries sync.Map // types.Address -> *types.Registry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the registry at addr
func (s *MemoryStore) Load(_ context.Context, addr types.Address) (*types.Registry, bool, error) {
	value, ok := s.registries.Load(addr)
	if !ok {
		return nil, false, nil
	}
	return value.(*types.Registry).Clone(), true, nil
}

// Save stores a copy of reg
func (s *MemoryStore) Save(_ context.Context, reg *types.Registry) error {
	s.registries.Store(reg.Address, reg.Clone())
	return nil
}

// Addresses lists every account with a registry, in address order
func (s *MemoryStore) Addresses(_ context.Context) ([]types.Address, error) {
	var addrs []types.Address
	s.registries.Range(func(key, _ interface{}) bool {
		addrs = append(addrs, key.(types.Address))
		return true
	})
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs, nil
}

// Commit saves a batch of registries
func (s *MemoryStore) Commit(ctx context.Context, regs []*types.Registry) error {
	for _, reg := range regs {
		if err := s.Save(ctx, reg); err != nil {
			return err
		}
	}
	return nil
}
