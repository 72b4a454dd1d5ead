package selection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// Offer is one supplier's terms for a product, flattened from the catalog.
type Offer struct {
	OfferID           uuid.UUID            `json:"offerId"`
	SupplierID        uuid.UUID            `json:"supplierId"`
	SupplierName      string               `json:"supplierName"`
	ProductID         uuid.UUID            `json:"productId"`
	SupplierProductID uuid.UUID            `json:"supplierProductId"`
	SKU               string               `json:"sku"`
	UnitCost          decimal.Decimal      `json:"unitCost"`
	CommissionAmount  decimal.Decimal      `json:"commissionAmount"`
	CommissionType    enums.CommissionType `json:"commissionType"`
	LeadTimeDays      *int                 `json:"leadTimeDays,omitempty"`
	IsPrimary         bool                 `json:"isPrimary"`
	IsActive          bool                 `json:"isActive"`
}

// ScoredOffer is an eligible offer with its derived economics.
type ScoredOffer struct {
	Offer
	Commission decimal.Decimal `json:"commission"`
	NetCost    decimal.Decimal `json:"netCost"`
	NetProfit  decimal.Decimal `json:"netProfit"`
	Score      decimal.Decimal `json:"score"`
}

// Result is the outcome of ranking the offers for one product.
type Result struct {
	ProductID    uuid.UUID               `json:"productId"`
	Strategy     enums.SelectionStrategy `json:"strategy"`
	Selected     ScoredOffer             `json:"selected"`
	Alternatives []ScoredOffer           `json:"alternatives"`
	Reason       string                  `json:"reason"`
}
