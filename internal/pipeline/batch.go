package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/intelscan/internal/model"
)

// DefaultConcurrency is the number of analyses a BatchProcessor runs at once.
const DefaultConcurrency = 3

// RunFunc runs one analysis for an input such as a goal.
// It must return a non-nil analysis even when it fails.
type RunFunc func(ctx context.Context, input string) (*model.Analysis, error)

// BatchProcessor runs several independent analyses concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
// Each run owns its own Analysis; nothing is shared between runs.
type BatchProcessor struct {
	// run executes a single analysis.
	run RunFunc

	// concurrency is the maximum number of concurrent analyses.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed analyses in input order.
	results []*model.Analysis
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor that calls run once per input.
func NewBatchProcessor(run RunFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		run:         run,
		concurrency: DefaultConcurrency,
		results:     make([]*model.Analysis, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs one analysis per input, at most concurrency at a time.
//
// A failed analysis does not stop the others; its error is recorded on the
// analysis. The returned error is non-nil only when ctx is cancelled, in
// which case inputs that never started have a nil entry.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, inputs []string) ([]*model.Analysis, error) {
	bp.logger.Info("starting batch processing",
		"total", len(inputs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.Analysis, len(inputs))

	err := bp.each(ctx, inputs, func(analysis *model.Analysis, i int) {
		bp.mu.Lock()
		bp.results[i] = analysis
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total", len(inputs),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback runs one analysis per input and calls callback
// with each finished analysis and the index of its input.
// The callback is called from the goroutine that ran the analysis, so it
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	inputs []string,
	callback func(analysis *model.Analysis, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total", len(inputs),
		"concurrency", bp.concurrency,
	)
	return bp.each(ctx, inputs, callback)
}

func (bp *BatchProcessor) each(ctx context.Context, inputs []string, done func(*model.Analysis, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("running analysis",
				"input", input,
				"index", i+1,
				"total", len(inputs),
			)

			analysis, err := bp.run(ctx, input)
			if err != nil {
				// Other analyses continue; the error lives on the analysis.
				bp.logger.Warn("analysis failed",
					"input", input,
					"error", err,
				)
			}
			if analysis != nil {
				done(analysis, i)
			}
			return nil
		})
	}

	return g.Wait()
}
