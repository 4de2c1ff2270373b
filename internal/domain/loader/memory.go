package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/coderegistry/internal/domain/ledger"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Loader rejections. These are failures of the submitted code, not of the
// loader itself.
var (
	ErrCodeCountMismatch = errors.New("code blob count does not match expected modules")
	ErrEmptyModule       = errors.New("empty module code")
	ErrRejected          = errors.New("loader rejected code")
)

// Memory is an in-process loader. It runs the structural checks a real
// loader starts with and remembers the modules of each installed package.
// Installs inside a ledger transaction take effect only once it commits.
type Memory struct {
	mu        sync.RWMutex
	installed map[types.Address]map[string][]string
	loads     int
}

var _ registry.Loader = (*Memory)(nil)

// NewMemory creates an empty in-process loader
func NewMemory() *Memory {
	return &Memory{installed: make(map[types.Address]map[string][]string)}
}

// Load checks the bundle shape and installs the package's modules,
// replacing whatever an earlier version of the package installed
func (m *Memory) Load(ctx context.Context, req registry.LoadRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckBundle(req); err != nil {
		return err
	}

	modules := append([]string(nil), req.ExpectedModules...)
	ledger.OnCommit(ctx, func() {
		m.install(req.Publisher, req.Package, modules)
	})
	return nil
}

func (m *Memory) install(addr types.Address, pkg string, modules []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkgs, ok := m.installed[addr]
	if !ok {
		pkgs = make(map[string][]string)
		m.installed[addr] = pkgs
	}
	pkgs[pkg] = modules
	m.loads++
}

// Installed lists the modules installed for an account, sorted
func (m *Memory) Installed(addr types.Address) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, modules := range m.installed[addr] {
		names = append(names, modules...)
	}
	sort.Strings(names)
	return names
}

// Loads returns the number of installs that took effect
func (m *Memory) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// CheckBundle verifies there is exactly one non-empty code blob per
// expected module
func CheckBundle(req registry.LoadRequest) error {
	if len(req.Code) != len(req.ExpectedModules) {
		return fmt.Errorf("%w: %d blobs for %d modules", ErrCodeCountMismatch, len(req.Code), len(req.ExpectedModules))
	}
	for i, blob := range req.Code {
		if len(blob) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyModule, req.ExpectedModules[i])
		}
	}
	return nil
}
