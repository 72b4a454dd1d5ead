package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/solarpo-backend/internal/automation"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

type sweeper interface {
	Sweep(ctx context.Context, limit int) (*automation.SweepResult, error)
}

type MaterialOrderSweepJobParams struct {
	Logger *logger.Logger
	Gate   sweeper
	Limit  int
}

// NewMaterialOrderSweepJob generates purchase orders for ready jobs that
// have none. Per-job failures fail the cycle's job metric but not the sweep.
func NewMaterialOrderSweepJob(params MaterialOrderSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("automation gate required")
	}
	return &materialOrderSweepJob{logg: params.Logger, gate: params.Gate, limit: params.Limit}, nil
}

type materialOrderSweepJob struct {
	logg  *logger.Logger
	gate  sweeper
	limit int
}

func (j *materialOrderSweepJob) Name() string { return "material-order-sweep" }

func (j *materialOrderSweepJob) Run(ctx context.Context) error {
	res, err := j.gate.Sweep(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("material order sweep: %w", err)
	}
	orders := 0
	for _, out := range res.Created {
		orders += len(out.Orders)
	}
	retryable := countRetryable(res.Failures)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":   res.Scanned,
		"created":   len(res.Created),
		"orders":    orders,
		"existing":  res.Existing,
		"failed":    len(res.Failures),
		"retryable": retryable,
	})
	if err := res.Err(); err != nil {
		j.logg.Warn(logCtx, "material_orders.sweep.partial")
		return fmt.Errorf("%d of %d job(s) failed: %w", len(res.Failures), res.Scanned, err)
	}
	j.logg.Info(logCtx, "material_orders.sweep.complete")
	return nil
}

func countRetryable(failures []automation.SweepFailure) int {
	n := 0
	for _, f := range failures {
		if automation.IsRetryable(f.Err) {
			n++
		}
	}
	return n
}
