package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

const defaultSweepLimit = 100

// SweepFailure is a job the sweep could not generate orders for.
type SweepFailure struct {
	JobID     uuid.UUID
	JobNumber string
	Err       error
}

// SweepResult reports one pass over the ready jobs.
type SweepResult struct {
	Scanned  int
	Created  []*Outcome
	Existing int
	Failures []SweepFailure
}

// Err combines the per-job failures.
func (r *SweepResult) Err() error {
	if r == nil {
		return nil
	}
	var combined error
	for _, f := range r.Failures {
		combined = multierr.Append(combined, fmt.Errorf("job %s: %w", f.JobNumber, f.Err))
	}
	return combined
}

// Sweep ensures orders for ready jobs that have neither orders nor a run.
// A failing job does not stop the pass.
func (g *Gate) Sweep(ctx context.Context, limit int) (*SweepResult, error) {
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	jobs, err := g.deps.Jobs.ListReadyWithoutOrders(ctx, g.cfg.ReadyStatus, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ready jobs")
	}

	result := &SweepResult{Scanned: len(jobs)}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out, err := g.Ensure(ctx, Request{JobID: job.ID, TriggeredBy: TriggerSweep})
		if err != nil {
			result.Failures = append(result.Failures, SweepFailure{JobID: job.ID, JobNumber: job.JobNumber, Err: err})
			continue
		}
		if !out.Created {
			result.Existing++
			continue
		}
		result.Created = append(result.Created, out)
	}
	return result, nil
}
