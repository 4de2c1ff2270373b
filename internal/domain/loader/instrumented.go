package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
)

// Instrumented wraps a loader with metrics and logging
type Instrumented struct {
	next    registry.Loader
	backend string
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// Instrument wraps next. metrics may be nil.
func Instrument(next registry.Loader, backend string, metrics *monitoring.Metrics, logger *logging.Logger) *Instrumented {
	return &Instrumented{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  logger.OrNop().Component("loader"),
	}
}

// Load forwards to the wrapped loader
func (i *Instrumented) Load(ctx context.Context, req registry.LoadRequest) error {
	timer := monitoring.NewTimer(i.metrics, i.backend)

	err := i.next.Load(ctx, req)
	if err != nil {
		timer.Stop("error")
		i.logger.Warn("load rejected",
			logging.Address("publisher", req.Publisher),
			zap.Strings("modules", req.ExpectedModules),
			zap.Error(err),
		)
		return err
	}

	timer.Stop("ok")
	i.logger.Debug("code loaded",
		logging.Address("publisher", req.Publisher),
		zap.Int("modules", len(req.ExpectedModules)),
		zap.Int("allowed_deps", len(req.AllowedDeps)),
	)
	return nil
}
