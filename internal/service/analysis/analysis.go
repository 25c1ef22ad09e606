// Package analysis orchestrates one analysis run: index the provider's
// occurrences into a graph, run the mutator sequence, then the retention
// pass.
package analysis

import (
	"context"

	"github.com/vestige-dev/vestige/internal/locator"
	"github.com/vestige-dev/vestige/pkg/analyzer/retention"
	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
	"github.com/vestige-dev/vestige/pkg/indexer"
	"github.com/vestige-dev/vestige/pkg/mutator"
)

// Service runs the scan pipeline.
type Service struct {
	config  *config.Config
	resolve func(path string) string
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithPathResolver overrides path canonicalization (for testing).
func WithPathResolver(fn func(path string) string) Option {
	return func(s *Service) {
		s.resolve = fn
	}
}

// New creates an analysis service. Paths canonicalize against the
// enclosing repository root by default.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolve == nil {
		s.resolve = locator.NewCanonicalizer(locator.RootOrDir(".")).Canonicalize
	}
	return s
}

// ScanOptions configures one scan.
type ScanOptions struct {
	// OnUnit is called once per ingested index unit.
	OnUnit func()
}

// ScanResult carries the retention report plus recoverable index warnings.
type ScanResult struct {
	Result   *retention.Result
	Warnings []indexer.Warning
}

// Scan runs the full pipeline over a provider. On a fatal error no partial
// result is returned.
func (s *Service) Scan(ctx context.Context, provider index.Provider, opts ScanOptions) (*ScanResult, error) {
	ixOpts := []indexer.Option{indexer.WithPathResolver(s.resolve)}
	if opts.OnUnit != nil {
		ixOpts = append(ixOpts, indexer.WithProgress(opts.OnUnit))
	}
	if s.config.Workers > 0 {
		ixOpts = append(ixOpts, indexer.WithWorkers(s.config.Workers))
	}

	ix := indexer.New(provider, ixOpts...)
	g, warnings, err := ix.Index(ctx)
	if err != nil {
		return nil, err
	}
	if s.config.DebugValidation {
		if err := graph.Validate(g); err != nil {
			return nil, err
		}
	}

	if err := mutator.Run(g, s.config); err != nil {
		return nil, err
	}

	result, err := retention.New(s.config).Analyze(g)
	if err != nil {
		return nil, err
	}

	return &ScanResult{Result: result, Warnings: warnings}, nil
}
