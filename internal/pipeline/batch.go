package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flagscan/flagscan/internal/model"
)

// BatchProcessor crawls multiple targets concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Runner because:
// 1. It keeps the Runner focused on single-target execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// runner executes the individual crawls. Each target crawls
	// sequentially over its own connection; only distinct targets
	// overlap.
	runner *Runner

	// concurrency is the maximum number of targets crawled at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor driving the given Runner.
func NewBatchProcessor(runner *Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple targets concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each target gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns the reports in target order, including partial reports for
// targets that failed. The error return indicates cancellation; a
// single failed crawl does not abort the batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]*model.CrawlReport, error) {
	bp.logger.Info("starting batch crawl",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Indexed writes keep target order without a mutex: each goroutine
	// owns exactly one slot.
	results := make([]*model.CrawlReport, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling target",
				"server", target.Server,
				"index", i+1,
				"total", len(targets),
			)

			report, err := bp.runner.Run(ctx, target)
			results[i] = report

			if err != nil {
				// A single broken target shouldn't cancel the batch,
				// but cancellation must propagate.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				bp.logger.Warn("target crawl failed",
					"server", target.Server,
					"error", err,
				)
			}

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch crawl complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
