package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultOutboxDeadAttempts  = 10
	defaultOutboxDeleteBatch   = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, deadAttempts, limit int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxRetentionRepo
	RetentionDays int
	// DeadAttempts matches the publisher's attempt ceiling. Rows at it were
	// copied to the DLQ and are safe to drop.
	DeadAttempts int
	// BatchSize caps the rows removed per transaction.
	BatchSize int
}

// outboxRetentionJob prunes outbox rows that were published, or given up on,
// longer ago than the retention window. Each batch commits on its own so a
// large backlog never holds one long delete.
type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         outboxRetentionRepo
	retention    int
	deadAttempts int
	batchSize    int
	now          func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		retention:    intOr(params.RetentionDays, defaultOutboxRetentionDays),
		deadAttempts: intOr(params.DeadAttempts, defaultOutboxDeadAttempts),
		batchSize:    intOr(params.BatchSize, defaultOutboxDeleteBatch),
		now:          time.Now,
	}, nil
}

func intOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	var total int64
	batches := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var deleted int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			n, err := j.repo.DeleteSettledBefore(ctx, tx, cutoff, j.deadAttempts, j.batchSize)
			deleted = n
			return err
		})
		if err != nil {
			return fmt.Errorf("outbox retention after %d rows: %w", total, err)
		}
		total += deleted
		batches++
		if deleted < int64(j.batchSize) {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"dead_attempts":  j.deadAttempts,
		"batches":        batches,
		"rows_deleted":   total,
	})
	j.logg.Info(logCtx, "outbox.retention.complete")
	return nil
}
