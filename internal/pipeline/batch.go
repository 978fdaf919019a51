package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/phishguard/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs processed at once.
const DefaultConcurrency = 10

// BatchProcessor runs a fresh pipeline for each URL of a batch, bounded by
// a concurrency limit, and returns the analyses in input order.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each URL.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
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
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes inputs concurrently on behalf of userID, which may
// be empty. Failed inputs are returned with Analysis.Error set; only
// cancellation makes ProcessBatch return an error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, userID string, inputs []string) ([]*model.Analysis, error) {
	return bp.ProcessBatchWithCallback(ctx, userID, inputs, nil)
}

// ProcessBatchWithCallback is ProcessBatch with a callback invoked as each
// analysis completes. The callback may be called from several goroutines.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	userID string,
	inputs []string,
	callback func(a *model.Analysis),
) ([]*model.Analysis, error) {
	bp.logger.Debug("starting batch processing",
		"total_urls", len(inputs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.Analysis, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			a := model.NewAnalysis(input)
			a.UserID = userID
			if err := bp.pipelineFactory().Execute(gctx, a); err != nil {
				bp.logger.Debug("analysis failed",
					"url", input,
					"index", i+1,
					"error", err,
				)
			}
			results[i] = a

			if callback != nil {
				callback(a)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing completed",
		"total_urls", len(inputs),
		"duration", time.Since(startTime),
	)

	if err != nil {
		return results, err
	}
	return results, nil
}

// Successful returns the analyses that passed validation, in order.
func Successful(analyses []*model.Analysis) []*model.Analysis {
	out := make([]*model.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a == nil || a.Failed() {
			continue
		}
		out = append(out, a)
	}
	return out
}
