package orders

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/internal/materials"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

// ManualPricingNote marks lines nobody could be found to supply.
const ManualPricingNote = "[NO SUPPLIER FOUND - MANUAL PRICING REQUIRED]"

// ErrPersistence wraps every failure to write a run; the transaction is rolled back.
var ErrPersistence = pkgerrors.New(pkgerrors.CodeInternal, "material order persistence failed")

// SelectedItem is a bill-of-materials line with its selection outcome.
// Selection is nil when no offer could be chosen; Err then says why.
type SelectedItem struct {
	Item      materials.MaterialItem
	Selection *selection.Result
	Err       error
}

// Resolved reports whether the line has a chosen supplier.
func (s SelectedItem) Resolved() bool {
	return s.Selection != nil && s.Selection.Selected.SupplierID != uuid.Nil
}

// UnresolvedItem is a line that fell into the unknown bucket. It carries a
// zero-cost placeholder and is never written as a priced order line.
type UnresolvedItem struct {
	Item                  materials.MaterialItem `json:"item"`
	Reason                string                 `json:"reason"`
	UnitCost              decimal.Decimal        `json:"unitCost"`
	ManualPricingRequired bool                   `json:"manualPricingRequired"`
	Required              bool                   `json:"required"`
	Notes                 string                 `json:"notes"`
}

// GenerationError is an item-level failure for a category that must be
// sourced. It does not stop other suppliers' orders from being created.
type GenerationError struct {
	Category enums.MaterialCategory `json:"category"`
	Item     string                 `json:"item"`
	Err      error                  `json:"-"`
	Message  string                 `json:"message"`
}

func newGenerationError(item materials.MaterialItem, err error) GenerationError {
	return GenerationError{
		Category: item.Category,
		Item:     item.Description(),
		Err:      err,
		Message:  err.Error(),
	}
}

func (e GenerationError) Error() string {
	return fmt.Sprintf("%s line %q: %s", e.Category, e.Item, e.Message)
}

func (e GenerationError) Unwrap() error {
	return e.Err
}

// SupplierSummary is one row of the per-supplier breakdown.
type SupplierSummary struct {
	OrderID      uuid.UUID       `json:"orderId"`
	SupplierID   uuid.UUID       `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	PONumber     string          `json:"poNumber"`
	ItemCount    int             `json:"itemCount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Summary is the generation report logged and returned to callers.
type Summary struct {
	TotalOrders     int               `json:"totalOrders"`
	TotalCost       decimal.Decimal   `json:"totalCost"`
	Suppliers       []SupplierSummary `json:"suppliers"`
	UnresolvedCount int               `json:"unresolvedCount"`
	ErrorCount      int               `json:"errorCount"`
}

// AggregateResult is what one aggregation run produced.
type AggregateResult struct {
	Orders     []models.MaterialOrder `json:"orders"`
	Unresolved []UnresolvedItem       `json:"unresolved"`
	Errors     []GenerationError      `json:"errors"`
	Summary    Summary                `json:"summary"`
}

// Summarize builds the breakdown for a set of orders.
func Summarize(orders []models.MaterialOrder, unresolved, errCount int) Summary {
	summary := Summary{
		TotalOrders:     len(orders),
		TotalCost:       decimal.Zero,
		Suppliers:       make([]SupplierSummary, 0, len(orders)),
		UnresolvedCount: unresolved,
		ErrorCount:      errCount,
	}
	for _, o := range orders {
		summary.TotalCost = summary.TotalCost.Add(o.Total)
		summary.Suppliers = append(summary.Suppliers, SupplierSummary{
			OrderID:      o.ID,
			SupplierID:   o.SupplierID,
			SupplierName: o.SupplierName,
			PONumber:     o.PONumber,
			ItemCount:    len(o.Items),
			Subtotal:     o.Subtotal,
			Tax:          o.Tax,
			Total:        o.Total,
		})
	}
	return summary
}
