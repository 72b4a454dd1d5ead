package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// MaterialGenerationRun is the per-job claim row that makes generation happen
// at most once. JobID is unique.
type MaterialGenerationRun struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	JobID       uuid.UUID                 `gorm:"column:job_id;type:uuid;not null;uniqueIndex:ux_material_generation_runs_job_id"`
	Status      enums.GenerationRunStatus `gorm:"column:status;type:text;not null"`
	Strategy    enums.SelectionStrategy   `gorm:"column:strategy;type:text;not null"`
	TriggeredBy string                    `gorm:"column:triggered_by;not null"`
	OrderCount  int                       `gorm:"column:order_count;not null"`
	TotalCost   decimal.Decimal           `gorm:"column:total_cost;type:numeric(12,2);not null"`
	Unresolved  datatypes.JSON            `gorm:"column:unresolved;type:jsonb"`
	Errors      datatypes.JSON            `gorm:"column:errors;type:jsonb"`
	StartedAt   time.Time                 `gorm:"column:started_at;not null"`
	CompletedAt *time.Time                `gorm:"column:completed_at"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *MaterialGenerationRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
