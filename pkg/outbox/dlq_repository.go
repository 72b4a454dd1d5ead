package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
)

var errDLQEventID = errors.New("dlq entry requires an event id")

// DLQRepository stores outbox rows the publisher stopped retrying.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// Insert records a terminal failure. The error message is truncated the same
// way as outbox_events.last_error.
func (r *DLQRepository) Insert(ctx context.Context, entry models.OutboxDLQ) error {
	if entry.EventID == uuid.Nil {
		return errDLQEventID
	}
	if entry.ErrorMessage != nil {
		msg := truncate(*entry.ErrorMessage, maxErrorLen)
		entry.ErrorMessage = &msg
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ListByEvent returns the dead-letter entries recorded for one outbox row,
// oldest first. A row can land here more than once if MarkDead failed after
// an earlier insert.
func (r *DLQRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.OutboxDLQ, error) {
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).
		Where(&models.OutboxDLQ{EventID: eventID}).
		Order("failed_at ASC").
		Find(&rows).Error
	return rows, err
}
