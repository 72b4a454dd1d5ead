package outbox

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
)

// maxErrorLen caps stored error text so a noisy broker response cannot bloat
// outbox rows.
const maxErrorLen = 1024

// Repository reads and settles outbox_events rows.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Insert writes a row inside the caller's transaction.
func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Create(&event).Error
}

// FetchUnpublished returns the oldest pending rows that have not exhausted
// maxAttempts. maxAttempts <= 0 disables the ceiling.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	q := r.db.WithContext(ctx).Scopes(pending)
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	var rows []models.OutboxEvent
	err := q.Order("created_at ASC, id ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{"published_at": r.now().UTC()})
}

// MarkFailed records a retryable failure and bumps the attempt counter.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, err error) error {
	return r.update(ctx, id, map[string]any{
		"last_error":    errorText(err),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// MarkDead pins the attempt counter at maxAttempts so the row is never fetched
// again but stays visible until retention removes it.
func (r *Repository) MarkDead(ctx context.Context, id uuid.UUID, maxAttempts int, err error) error {
	return r.update(ctx, id, map[string]any{
		"last_error":    errorText(err),
		"attempt_count": maxAttempts,
	})
}

// DeleteSettledBefore removes rows published before cutoff and rows that
// exhausted deadAttempts and were created before cutoff, oldest first. limit
// <= 0 removes every match in one statement.
func (r *Repository) DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, deadAttempts, limit int) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	tx = tx.WithContext(ctx)
	settled := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.OutboxEvent{}).
		Select("id").
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Or("published_at IS NULL AND attempt_count >= ? AND created_at < ?", deadAttempts, cutoff)
	if limit > 0 {
		settled = settled.Order("created_at ASC").Limit(limit)
	}
	res := tx.Where("id IN (?)", settled).Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if id == uuid.Nil {
		return errors.New("outbox event id required")
	}
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error
}

func pending(db *gorm.DB) *gorm.DB {
	return db.Where("published_at IS NULL")
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return truncate(err.Error(), maxErrorLen)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
