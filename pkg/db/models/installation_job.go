package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/types"
)

// InstallationJob is owned by the job subsystem; this service reads the
// technical design and advances the status once materials are ordered.
type InstallationJob struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	JobNumber          string                   `gorm:"column:job_number;not null"`
	CustomerName       *string                  `gorm:"column:customer_name"`
	Status             enums.JobStatus          `gorm:"column:status;type:text;not null;index:idx_installation_jobs_status"`
	SystemSizeKw       decimal.Decimal          `gorm:"column:system_size_kw;type:numeric(8,2);not null"`
	PanelCount         int                      `gorm:"column:panel_count;not null"`
	BatteryCapacityKwh decimal.NullDecimal      `gorm:"column:battery_capacity_kwh;type:numeric(8,2)"`
	InverterModel      string                   `gorm:"column:inverter_model;not null"`
	SelectedComponents types.SelectedComponents `gorm:"column:selected_components;type:jsonb;not null"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (j *InstallationJob) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
