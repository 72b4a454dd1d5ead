package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/internal/repo"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// RunRepository persists the per-job generation claim.
type RunRepository struct {
	repo.Base
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{Base: repo.NewBase(db)}
}

// Claim inserts the GENERATING row on tx. A second claim for the same job
// fails on ux_material_generation_runs_job_id.
func (r *RunRepository) Claim(ctx context.Context, tx *gorm.DB, run *models.MaterialGenerationRun) error {
	if run.Status == "" {
		run.Status = enums.GenerationRunStatusGenerating
	}
	return r.On(ctx, tx).Create(run).Error
}

// Finish records where the run ended up.
func (r *RunRepository) Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, result *orders.AggregateResult, completedAt time.Time) error {
	status := enums.GenerationRunStatusDone
	if len(result.Errors) > 0 {
		status = enums.GenerationRunStatusDoneWithErrors
	}
	unresolved, err := jsonColumn(result.Unresolved)
	if err != nil {
		return fmt.Errorf("encode unresolved items: %w", err)
	}
	genErrs, err := jsonColumn(result.Errors)
	if err != nil {
		return fmt.Errorf("encode generation errors: %w", err)
	}
	return repo.Affected(r.On(ctx, tx).
		Model(&models.MaterialGenerationRun{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":       status,
			"order_count":  len(result.Orders),
			"total_cost":   result.Summary.TotalCost,
			"unresolved":   unresolved,
			"errors":       genErrs,
			"completed_at": completedAt,
		}))
}

// FindByJob returns the job's run or nil when the job was never claimed.
func (r *RunRepository) FindByJob(ctx context.Context, jobID uuid.UUID) (*models.MaterialGenerationRun, error) {
	var run models.MaterialGenerationRun
	err := r.DB(ctx).Where("job_id = ?", jobID).Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DiscardFinished deletes the job's previous run on tx so a retry can claim
// again. A run still GENERATING is left alone and the next Claim fails on the
// unique index.
func (r *RunRepository) DiscardFinished(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) error {
	return r.On(ctx, tx).
		Where("job_id = ? AND status <> ?", jobID, enums.GenerationRunStatusGenerating).
		Delete(&models.MaterialGenerationRun{}).Error
}

func jsonColumn(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func newRun(jobID uuid.UUID, strategy enums.SelectionStrategy, triggeredBy string, startedAt time.Time) *models.MaterialGenerationRun {
	return &models.MaterialGenerationRun{
		JobID:       jobID,
		Status:      enums.GenerationRunStatusGenerating,
		Strategy:    strategy,
		TriggeredBy: triggeredBy,
		TotalCost:   decimal.Zero,
		StartedAt:   startedAt,
	}
}
