package jobs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/repo"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// Repository reads installation jobs and advances their status.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID returns gorm.ErrRecordNotFound when the job does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InstallationJob, error) {
	var job models.InstallationJob
	if err := r.DB(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus sets the job status using tx when given.
func (r *Repository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.JobStatus) error {
	return repo.Affected(r.On(ctx, tx).
		Model(&models.InstallationJob{}).
		Where("id = ?", id).
		Update("status", status))
}

// ListReadyWithoutOrders returns jobs in status that have no material orders,
// oldest first. Jobs whose last run produced no orders come back so the sweep
// retries them.
func (r *Repository) ListReadyWithoutOrders(ctx context.Context, status enums.JobStatus, limit int) ([]models.InstallationJob, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.InstallationJob
	err := r.DB(ctx).
		Where("status = ?", status).
		Where("NOT EXISTS (SELECT 1 FROM material_orders mo WHERE mo.job_id = installation_jobs.id)").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
