package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/address-intel/internal/model"
)

// ProcessBatch runs every company through ProcessCompany across a bounded
// worker pool. The result slice carries exactly one row per input company,
// in input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, companies []model.Company, opts ProcessOptions) ([]model.ResultRow, model.BatchSummary) {
	batchID := uuid.NewString()
	start := time.Now()
	log := zap.L().With(zap.String("batch_id", batchID))
	log.Info("pipeline: batch start",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", p.opts.Concurrency))

	results := make([]model.ResultRow, len(companies))
	var succeeded, noAddress, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			results[i] = p.ProcessCompany(gctx, company, opts)

			switch results[i].Status {
			case model.StatusSuccess:
				succeeded.Add(1)
			case model.StatusNoAddressFound:
				noAddress.Add(1)
			default:
				failed.Add(1)
			}
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait() // workers never return errors

	summary := model.BatchSummary{
		BatchID:   batchID,
		Total:     len(companies),
		Succeeded: int(succeeded.Load()),
		NoAddress: int(noAddress.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start).Milliseconds(),
	}
	log.Info("pipeline: batch complete",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("no_address", summary.NoAddress),
		zap.Int("failed", summary.Failed),
		zap.Int64("duration_ms", summary.Duration))

	return results, summary
}
