package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// MaterialOrder is the purchase order raised against one supplier for one job.
// Totals are computed from its own item snapshot and never from the catalog.
type MaterialOrder struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	PONumber         string                    `gorm:"column:po_number;not null;uniqueIndex:ux_material_orders_po_number"`
	JobID            uuid.UUID                 `gorm:"column:job_id;type:uuid;not null;uniqueIndex:ux_material_orders_job_supplier,priority:1"`
	SupplierID       uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:ux_material_orders_job_supplier,priority:2"`
	SupplierName     string                    `gorm:"column:supplier_name;not null"`
	Status           enums.MaterialOrderStatus `gorm:"column:status;type:text;not null"`
	Strategy         enums.SelectionStrategy   `gorm:"column:strategy;type:text;not null"`
	Subtotal         decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax              decimal.Decimal           `gorm:"column:tax;type:numeric(12,2);not null"`
	Total            decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null"`
	Notes            *string                   `gorm:"column:notes"`
	SentTo           *string                   `gorm:"column:sent_to"`
	SentAt           *time.Time                `gorm:"column:sent_at"`
	ConfirmedAt      *time.Time                `gorm:"column:confirmed_at"`
	ExpectedDelivery *time.Time                `gorm:"column:expected_delivery"`
	DeliveredAt      *time.Time                `gorm:"column:delivered_at"`
	CancelledAt      *time.Time                `gorm:"column:cancelled_at"`
	Items            []MaterialOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *MaterialOrder) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
