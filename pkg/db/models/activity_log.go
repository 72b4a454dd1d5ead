package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// ActivityLog is an append-only audit entry shown on the job timeline.
type ActivityLog struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	EntityType  string             `gorm:"column:entity_type;not null"`
	EntityID    uuid.UUID          `gorm:"column:entity_id;type:uuid;not null"`
	JobID       *uuid.UUID         `gorm:"column:job_id;type:uuid;index:idx_activity_logs_job_id"`
	Type        enums.ActivityType `gorm:"column:type;type:text;not null"`
	Description string             `gorm:"column:description;not null"`
	Metadata    datatypes.JSONMap  `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
