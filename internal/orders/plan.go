package orders

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

const moneyPlaces = 2

// Totals returns tax = round(subtotal x gst, 2) and total = subtotal + tax.
func Totals(subtotal, gst decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	tax := subtotal.Mul(gst).Round(moneyPlaces)
	return tax, subtotal.Add(tax)
}

// Plan splits the selected lines into one draft order per supplier, in order
// of first appearance, and collects the lines that have no supplier. Drafts
// carry no id or PO number. Plan never touches the database.
func Plan(jobID uuid.UUID, items []SelectedItem, gst decimal.Decimal) ([]models.MaterialOrder, []UnresolvedItem, []GenerationError) {
	var (
		drafts     []models.MaterialOrder
		unresolved []UnresolvedItem
		genErrs    []GenerationError
		bySupplier = map[uuid.UUID]int{}
	)

	for position, selected := range items {
		if !selected.Resolved() {
			reason := selected.Err
			if reason == nil {
				reason = selection.ErrNoSupplierFound
			}
			required := Required(selected.Item.Category)
			unresolved = append(unresolved, UnresolvedItem{
				Item:                  selected.Item,
				Reason:                reason.Error(),
				UnitCost:              decimal.Zero,
				ManualPricingRequired: true,
				Required:              required,
				Notes:                 manualPricingNotes(selected.Item.Notes),
			})
			if required {
				genErrs = append(genErrs, newGenerationError(selected.Item, reason))
			}
			continue
		}

		chosen := selected.Selection.Selected
		idx, ok := bySupplier[chosen.SupplierID]
		if !ok {
			idx = len(drafts)
			bySupplier[chosen.SupplierID] = idx
			drafts = append(drafts, models.MaterialOrder{
				JobID:        jobID,
				SupplierID:   chosen.SupplierID,
				SupplierName: chosen.SupplierName,
				Status:       enums.MaterialOrderStatusDraft,
				Strategy:     selected.Selection.Strategy,
				Subtotal:     decimal.Zero,
			})
		}
		line := orderItem(position, selected)
		drafts[idx].Items = append(drafts[idx].Items, line)
		drafts[idx].Subtotal = drafts[idx].Subtotal.Add(line.LineTotal)
	}

	for i := range drafts {
		drafts[i].Tax, drafts[i].Total = Totals(drafts[i].Subtotal, gst)
	}
	return drafts, unresolved, genErrs
}

func orderItem(position int, selected SelectedItem) models.MaterialOrderItem {
	chosen := selected.Selection.Selected
	qty := decimal.NewFromInt(int64(selected.Item.Quantity))
	unitCost := chosen.UnitCost.Round(moneyPlaces)

	line := models.MaterialOrderItem{
		Position:        position,
		Category:        selected.Item.Category,
		ItemType:        selected.Item.Type,
		Brand:           selected.Item.Brand,
		Model:           selected.Item.Model,
		ProductID:       selected.Item.ProductID,
		Quantity:        selected.Item.Quantity,
		Unit:            selected.Item.Unit,
		UnitCost:        unitCost,
		LineTotal:       unitCost.Mul(qty).Round(moneyPlaces),
		Commission:      chosen.Commission.Mul(qty).Round(moneyPlaces),
		SelectionReason: selected.Selection.Reason,
	}
	if chosen.SKU != "" {
		sku := chosen.SKU
		line.SKU = &sku
	}
	if chosen.SupplierProductID != uuid.Nil {
		spID := chosen.SupplierProductID
		line.SupplierProductID = &spID
	}
	if selected.Item.Notes != "" {
		notes := selected.Item.Notes
		line.Notes = &notes
	}
	return line
}

func manualPricingNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ManualPricingNote
	}
	return notes + " " + ManualPricingNote
}

// IsUnresolved reports whether err is a recoverable selection failure that
// belongs in the unknown bucket.
func IsUnresolved(err error) bool {
	return errors.Is(err, selection.ErrNoSupplierFound) || errors.Is(err, selection.ErrNoEligibleOffer)
}
