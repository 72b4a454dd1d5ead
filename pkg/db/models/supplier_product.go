package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// SupplierProduct is one line of a supplier's price list.
type SupplierProduct struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID   uuid.UUID              `gorm:"column:supplier_id;type:uuid;not null"`
	Supplier     Supplier               `gorm:"foreignKey:SupplierID"`
	Category     enums.MaterialCategory `gorm:"column:category;type:text;not null;index:idx_supplier_products_lookup,priority:1"`
	Brand        string                 `gorm:"column:brand;not null;index:idx_supplier_products_lookup,priority:2"`
	Model        string                 `gorm:"column:model;not null;index:idx_supplier_products_lookup,priority:3"`
	SKU          string                 `gorm:"column:sku;not null"`
	UnitCost     decimal.Decimal        `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	LeadTimeDays *int                   `gorm:"column:lead_time_days"`
	IsActive     bool                   `gorm:"column:is_active;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *SupplierProduct) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
