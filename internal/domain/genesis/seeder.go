package genesis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/domain/bundle"
	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/domain/network"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
)

// DefaultPattern matches descriptors at any depth
const DefaultPattern = "**/" + bundle.DescriptorFile

// Genesis package results
const (
	ResultPublished = "published"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Report summarizes one seeding run
type Report struct {
	Bundles   int `json:"bundles"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Seeder publishes release bundles found under a directory
type Seeder struct {
	manager *code.Manager
	chain   network.Chain
	pattern string
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewSeeder creates a seeder. Bundles naming a chain other than chain are
// skipped. An empty pattern means DefaultPattern.
func NewSeeder(manager *code.Manager, chain network.Chain, pattern string, logger *logging.Logger) *Seeder {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Seeder{
		manager: manager,
		chain:   chain,
		pattern: pattern,
		logger:  logger.OrNop().Component("genesis"),
	}
}

// WithMetrics enables metrics recording
func (s *Seeder) WithMetrics(metrics *monitoring.Metrics) *Seeder {
	s.metrics = metrics
	return s
}

// Discover returns descriptor paths under root matching the pattern,
// relative to root with forward slashes, sorted
func (s *Seeder) Discover(root string) ([]string, error) {
	if !doublestar.ValidatePattern(s.pattern) {
		return nil, fmt.Errorf("invalid genesis pattern %q", s.pattern)
	}

	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(s.pattern, rel); ok {
			mu.Lock()
			found = append(found, rel)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

// Seed discovers bundles under root and publishes them in path order.
// Within a bundle, packages publish in descriptor order and a failure stops
// the rest of that bundle. Packages already stored with the same source
// digest are skipped, so seeding the same directory twice is a no-op.
func (s *Seeder) Seed(ctx context.Context, root string) (Report, error) {
	var report Report

	paths, err := s.Discover(root)
	if err != nil {
		return report, err
	}
	s.logger.Info("discovered bundles", zap.String("root", root), zap.Int("count", len(paths)))

	fsys := os.DirFS(root)
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.seedBundle(ctx, fsys, p, &report); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("genesis complete",
		zap.Int("bundles", report.Bundles),
		zap.Int("published", report.Published),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, errors.Join(errs...)
}

func (s *Seeder) seedBundle(ctx context.Context, fsys fs.FS, path string, report *Report) error {
	desc, err := bundle.ReadDescriptor(fsys, path)
	if err != nil {
		report.Failed++
		s.record(ResultFailed)
		s.logger.Error("failed to read bundle descriptor", zap.String("path", path), zap.Error(err))
		return err
	}

	if desc.Chain != "" {
		chain, err := network.Parse(desc.Chain)
		if err != nil {
			report.Failed++
			s.record(ResultFailed)
			return fmt.Errorf("bundle %s: %w", desc.Name, err)
		}
		if chain != s.chain {
			s.logger.Info("skipping bundle for another chain",
				zap.String("bundle", desc.Name),
				zap.Stringer("bundle_chain", chain),
				zap.Stringer("chain", s.chain),
			)
			return nil
		}
	}

	b, err := bundle.LoadPackages(fsys, path, desc)
	if err != nil {
		report.Failed++
		s.record(ResultFailed)
		s.logger.Error("failed to load bundle", zap.String("path", path), zap.Error(err))
		return err
	}
	report.Bundles++

	for _, entry := range b.Packages {
		if s.alreadySeeded(ctx, entry) {
			report.Skipped++
			s.record(ResultSkipped)
			continue
		}

		_, err := s.manager.Publish(ctx, code.PublishRequest{
			Publisher: entry.Account,
			Package:   entry.Package,
			Code:      entry.Code,
		})
		if err != nil {
			report.Failed++
			s.record(ResultFailed)
			return fmt.Errorf("bundle %s: package %s at %s: %w", b.Name, entry.Package.Name, entry.Account, err)
		}
		report.Published++
		s.record(ResultPublished)
	}
	return nil
}

func (s *Seeder) alreadySeeded(ctx context.Context, entry bundle.Entry) bool {
	stored, err := s.manager.Package(ctx, entry.Account, entry.Package.Name)
	if err != nil {
		return false
	}
	return stored.SourceDigest == entry.Package.SourceDigest
}

func (s *Seeder) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordGenesisPackage(result)
	}
}
