package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// SupplierOffer maps a catalog product onto a supplier's price-list line and
// carries the commission terms for that pairing. SupplierCost and LeadTimeDays
// override the price-list values when set. IsPrimary is always set.
type SupplierOffer struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID            `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_supplier_offers_product_supplier_product,priority:1"`
	SupplierProductID uuid.UUID            `gorm:"column:supplier_product_id;type:uuid;not null;uniqueIndex:ux_supplier_offers_product_supplier_product,priority:2"`
	SupplierProduct   SupplierProduct      `gorm:"foreignKey:SupplierProductID"`
	SupplierCost      decimal.NullDecimal  `gorm:"column:supplier_cost;type:numeric(12,2)"`
	LeadTimeDays      *int                 `gorm:"column:lead_time_days"`
	CommissionAmount  decimal.Decimal      `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	CommissionType    enums.CommissionType `gorm:"column:commission_type;type:text;not null"`
	IsPrimary         bool                 `gorm:"column:is_primary;not null"`
	IsActive          bool                 `gorm:"column:is_active;not null"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *SupplierOffer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
