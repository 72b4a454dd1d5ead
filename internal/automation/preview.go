package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/solarpo-backend/internal/materials"
	"github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// PreviewLine is one bill-of-materials line with its selection outcome.
type PreviewLine struct {
	Item      materials.MaterialItem `json:"item"`
	Selection *selection.Result      `json:"selection,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Preview is a dry run of a job's generation. Draft orders carry no PO number.
type Preview struct {
	JobID      uuid.UUID
	JobStatus  enums.JobStatus
	Strategy   enums.SelectionStrategy
	Lines      []PreviewLine
	Drafts     []models.MaterialOrder
	Unresolved []orders.UnresolvedItem
	Errors     []orders.GenerationError
	Summary    orders.Summary
}

// Preview builds the bill of materials and supplier choices for a job without
// writing anything. The job status is not checked.
func (g *Gate) Preview(ctx context.Context, jobID uuid.UUID) (*Preview, error) {
	ctx = g.withJob(ctx, jobID)
	job, err := g.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	spec, err := materials.SpecFromJob(*job)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, ErrMissingJobOrSpec)
	}

	selected, err := g.selectItems(ctx, materials.Generate(spec))
	if err != nil {
		return nil, err
	}

	lines := make([]PreviewLine, 0, len(selected))
	for _, s := range selected {
		line := PreviewLine{Item: s.Item, Selection: s.Selection}
		if s.Err != nil {
			line.Error = s.Err.Error()
		}
		lines = append(lines, line)
	}

	drafts, unresolved, genErrs := orders.Plan(job.ID, selected, g.cfg.GSTRate)
	return &Preview{
		JobID:      job.ID,
		JobStatus:  job.Status,
		Strategy:   g.cfg.Strategy.Strategy,
		Lines:      lines,
		Drafts:     drafts,
		Unresolved: unresolved,
		Errors:     genErrs,
		Summary:    orders.Summarize(drafts, len(unresolved), len(genErrs)),
	}, nil
}
