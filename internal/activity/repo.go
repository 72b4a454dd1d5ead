package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/repo"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
)

// EntityInstallationJob and EntityMaterialOrder name the audited aggregates.
const (
	EntityInstallationJob = "installation_job"
	EntityMaterialOrder   = "material_order"
)

// Repository appends job timeline entries.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Record inserts entry using tx when given.
func (r *Repository) Record(ctx context.Context, tx *gorm.DB, entry models.ActivityLog) error {
	return r.On(ctx, tx).Create(&entry).Error
}

// ListByJob returns the newest entries for a job first.
func (r *Repository) ListByJob(ctx context.Context, jobID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ActivityLog
	err := r.DB(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
