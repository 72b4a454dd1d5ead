package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// MaterialOrderItem is the snapshot of one bill-of-materials line as priced
// when the order was generated.
type MaterialOrderItem struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index:idx_material_order_items_order_id"`
	Position          int                    `gorm:"column:position;not null"`
	Category          enums.MaterialCategory `gorm:"column:category;type:text;not null"`
	ItemType          string                 `gorm:"column:item_type;not null"`
	Brand             string                 `gorm:"column:brand;not null"`
	Model             string                 `gorm:"column:model;not null"`
	SKU               *string                `gorm:"column:sku"`
	ProductID         *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	SupplierProductID *uuid.UUID             `gorm:"column:supplier_product_id;type:uuid"`
	Quantity          int                    `gorm:"column:quantity;not null"`
	Unit              string                 `gorm:"column:unit;not null"`
	UnitCost          decimal.Decimal        `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	LineTotal         decimal.Decimal        `gorm:"column:line_total;type:numeric(12,2);not null"`
	Commission        decimal.Decimal        `gorm:"column:commission;type:numeric(12,2);not null"`
	SelectionReason   string                 `gorm:"column:selection_reason;not null"`
	Notes             *string                `gorm:"column:notes"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (i *MaterialOrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
