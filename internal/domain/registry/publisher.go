package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// NetworkMode tells the publisher which chain it runs on
type NetworkMode interface {
	IsNonProduction() bool
}

// LoadRequest is what a successful publish hands to the bytecode loader
type LoadRequest struct {
	Publisher       types.Address
	Package         string
	ExpectedModules []string
	AllowedDeps     []types.AllowedDep
	Code            [][]byte
	Policy          types.Policy
}

// Loader verifies, links and installs published code
type Loader interface {
	Load(ctx context.Context, req LoadRequest) error
}

// Publisher validates and commits package publishes
type Publisher struct {
	network NetworkMode
	loader  Loader
	rules   UpgradeRules
	logger  *logging.Logger
}

// NewPublisher creates a publisher
func NewPublisher(network NetworkMode, loader Loader, rules UpgradeRules, logger *logging.Logger) *Publisher {
	return &Publisher{
		network: network,
		loader:  loader,
		rules:   rules,
		logger:  logger.OrNop().Component("publisher"),
	}
}

// Rules returns the upgrade rules in effect
func (p *Publisher) Rules() UpgradeRules {
	return p.rules
}

// Authorize reports whether publisher may publish at all on this network.
// Production networks accept code only from exempt accounts.
func (p *Publisher) Authorize(publisher types.Address) error {
	if !types.IsPolicyExempt(publisher) && !p.network.IsNonProduction() {
		return fmt.Errorf("%w: %s may not publish on a production network", ErrNotAComputePlatform, publisher)
	}
	return nil
}

// Publish installs candidate in the publisher's registry and hands the code
// to the loader. Checks run in a fixed order and the first failure wins:
// authorization, dependencies, module coexistence, upgrade rules. The
// registry is written only after every check passed.
//
// The loader runs after the write. A loader error is returned and the
// caller must discard the write, which the ledger does by aborting the
// transaction.
func (p *Publisher) Publish(ctx context.Context, store Store, publisher types.Address, candidate *types.Package, code [][]byte) ([]types.AllowedDep, error) {
	log := p.logger.With(
		logging.Address("publisher", publisher),
		zap.String("package", candidate.Name),
	)

	if err := p.Authorize(publisher); err != nil {
		return nil, err
	}

	allowed, err := ResolveDependencies(ctx, store, publisher, candidate.Deps)
	if err != nil {
		return nil, err
	}

	reg, err := GetOrCreate(ctx, store, publisher)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", publisher, err)
	}

	if err := CheckCoexistence(reg, candidate); err != nil {
		return nil, err
	}

	pkg := candidate.Clone()
	index, found := FindIndexByName(reg, candidate.Name)
	if found {
		next, err := ValidateUpgrade(&reg.Packages[index], candidate, p.rules)
		if err != nil {
			return nil, err
		}
		pkg.UpgradeNumber = next
	} else {
		pkg.UpgradeNumber = 0
	}

	ReplaceOrAppend(reg, index, found, pkg)
	if err := store.Save(ctx, reg); err != nil {
		return nil, fmt.Errorf("save registry %s: %w", publisher, err)
	}

	req := LoadRequest{
		Publisher:       publisher,
		Package:         pkg.Name,
		ExpectedModules: pkg.ModuleNames(),
		AllowedDeps:     allowed,
		Code:            code,
		Policy:          pkg.UpgradePolicy,
	}
	if err := p.loader.Load(ctx, req); err != nil {
		return nil, fmt.Errorf("loader rejected %q: %w", candidate.Name, err)
	}

	log.Debug("package committed",
		zap.Uint64("upgrade_number", pkg.UpgradeNumber),
		zap.Bool("upgrade", found),
		zap.Int("allowed_deps", len(allowed)),
	)
	return allowed, nil
}
