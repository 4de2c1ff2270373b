package code

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/domain/ledger"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
	"github.com/GriffinCanCode/coderegistry/internal/shared/utils"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPackageNotFound = errors.New("package not found")
)

// PublishRequest is one package publish
type PublishRequest struct {
	Publisher types.Address
	Package   types.Package
	Code      [][]byte
}

// PublishResult reports a committed publish
type PublishResult struct {
	TxID          string             `json:"tx_id"`
	Publisher     types.Address      `json:"publisher"`
	Package       string             `json:"package"`
	UpgradeNumber uint64             `json:"upgrade_number"`
	Policy        types.Policy       `json:"upgrade_policy"`
	SourceDigest  string             `json:"source_digest"`
	AllowedDeps   []types.AllowedDep `json:"allowed_deps"`
}

// Manager runs publishes inside ledger transactions and answers queries
// over committed state
type Manager struct {
	ledger    *ledger.Ledger
	publisher *registry.Publisher
	hasher    *utils.Hasher
	metrics   *monitoring.Metrics
	observers []Observer
	logger    *logging.Logger
}

// NewManager creates a code manager
func NewManager(l *ledger.Ledger, publisher *registry.Publisher, logger *logging.Logger) *Manager {
	return &Manager{
		ledger:    l,
		publisher: publisher,
		hasher:    utils.DefaultHasher(),
		logger:    logger.OrNop().Component("code"),
	}
}

// WithMetrics enables metrics recording
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Publish authorizes the publisher, validates the request shape, then
// publishes in a transaction touching the publisher and every dependency
// account
func (m *Manager) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	start := time.Now()
	pkg := req.Package.Clone()

	if err := m.publisher.Authorize(req.Publisher); err != nil {
		if m.metrics != nil {
			m.metrics.RecordPublish(registry.Kind(err), time.Since(start), 0)
		}
		m.notify(Event{
			Type:      EventRejected,
			Publisher: req.Publisher,
			Package:   pkg.Name,
			Kind:      registry.Kind(err),
			AbortCode: registry.Code(err),
			Error:     err.Error(),
		})
		return nil, err
	}
	if err := utils.ValidateCandidate(&pkg, req.Code); err != nil {
		return nil, err
	}
	if pkg.SourceDigest == "" {
		pkg.SourceDigest = m.hasher.HashBlobs(req.Code)
	}

	touched := []types.Address{req.Publisher}
	for _, d := range pkg.Deps {
		touched = append(touched, d.Account)
	}

	var (
		allowed []types.AllowedDep
		stored  types.Package
	)
	receipt, err := m.ledger.Execute(ctx, touched, func(ctx context.Context, tx *ledger.Tx) error {
		var err error
		allowed, err = m.publisher.Publish(ctx, tx, req.Publisher, &pkg, req.Code)
		if err != nil {
			return err
		}

		reg, _, err := tx.Load(ctx, req.Publisher)
		if err != nil {
			return err
		}
		idx, _ := registry.FindIndexByName(reg, pkg.Name)
		stored = reg.Packages[idx]
		return nil
	})

	m.record(receipt, err, time.Since(start), len(allowed))
	if err != nil {
		m.logger.Info("publish aborted",
			zap.String("tx", receipt.ID),
			logging.Address("publisher", req.Publisher),
			zap.String("package", pkg.Name),
			zap.String("kind", registry.Kind(err)),
			zap.Error(err),
		)
		m.notify(Event{
			Type:      EventRejected,
			TxID:      receipt.ID,
			Publisher: req.Publisher,
			Package:   pkg.Name,
			Kind:      registry.Kind(err),
			AbortCode: registry.Code(err),
			Error:     err.Error(),
		})
		return nil, err
	}

	m.logger.Info("package published",
		zap.String("tx", receipt.ID),
		logging.Address("publisher", req.Publisher),
		zap.String("package", stored.Name),
		zap.Uint64("upgrade_number", stored.UpgradeNumber),
		zap.Stringer("policy", stored.UpgradePolicy),
	)

	m.notify(Event{
		Type:          EventPublished,
		TxID:          receipt.ID,
		Publisher:     req.Publisher,
		Package:       stored.Name,
		UpgradeNumber: stored.UpgradeNumber,
		Policy:        stored.UpgradePolicy.String(),
	})

	return &PublishResult{
		TxID:          receipt.ID,
		Publisher:     req.Publisher,
		Package:       stored.Name,
		UpgradeNumber: stored.UpgradeNumber,
		Policy:        stored.UpgradePolicy,
		SourceDigest:  stored.SourceDigest,
		AllowedDeps:   allowed,
	}, nil
}

func (m *Manager) record(receipt ledger.TxReceipt, err error, duration time.Duration, allowed int) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordTransaction(receipt.Committed)

	kind := ""
	if err != nil {
		kind = registry.Kind(err)
		if kind == "" {
			kind = "other"
		}
	}
	m.metrics.RecordPublish(kind, duration, allowed)
}

// Registry returns the committed registry at addr
func (m *Manager) Registry(ctx context.Context, addr types.Address) (*types.Registry, error) {
	reg, ok, err := m.ledger.Store().Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return reg, nil
}

// Package returns one committed package
func (m *Manager) Package(ctx context.Context, addr types.Address, name string) (*types.Package, error) {
	reg, err := m.Registry(ctx, addr)
	if err != nil {
		return nil, err
	}
	idx, ok := registry.FindIndexByName(reg, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrPackageNotFound, addr, name)
	}
	return &reg.Packages[idx], nil
}

// Accounts lists every account with a registry
func (m *Manager) Accounts(ctx context.Context) ([]types.Address, error) {
	return m.ledger.Store().Addresses(ctx)
}

// Stats summarizes committed state and refreshes the registry gauges
func (m *Manager) Stats(ctx context.Context) (types.RegistryStats, error) {
	stats := types.RegistryStats{ByPolicy: make(map[string]int)}

	addrs, err := m.Accounts(ctx)
	if err != nil {
		return stats, err
	}
	for _, addr := range addrs {
		reg, ok, err := m.ledger.Store().Load(ctx, addr)
		if err != nil {
			return stats, err
		}
		if !ok {
			continue
		}
		stats.Registries++
		stats.Packages += len(reg.Packages)
		stats.Modules += reg.ModuleCount()
		for _, p := range reg.Packages {
			stats.ByPolicy[p.UpgradePolicy.String()]++
		}
	}

	if m.metrics != nil {
		m.metrics.SetRegistryState(stats.Registries, stats.Packages, stats.Modules, stats.ByPolicy)
	}
	return stats, nil
}
