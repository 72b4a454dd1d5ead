package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/repo"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// Repository reads supplier offers. It never writes.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ActiveOffers returns every active mapping for productID whose supplier
// product and supplier are also active.
func (r *Repository) ActiveOffers(ctx context.Context, productID uuid.UUID) ([]selection.Offer, error) {
	var rows []models.SupplierOffer
	err := r.DB(ctx).
		Joins("JOIN supplier_products sp ON sp.id = supplier_offers.supplier_product_id").
		Joins("JOIN suppliers s ON s.id = sp.supplier_id").
		Where("supplier_offers.product_id = ?", productID).
		Where("supplier_offers.is_active = ? AND sp.is_active = ? AND s.is_active = ?", true, true, true).
		Preload("SupplierProduct.Supplier").
		Order("supplier_offers.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load offers for product %s: %w", productID, err)
	}

	offers := make([]selection.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, fromMapping(row))
	}
	return offers, nil
}

// MatchingProducts returns active price-list lines for an exact category,
// brand and model match, cheapest first, as non-primary offers without
// commission.
func (r *Repository) MatchingProducts(ctx context.Context, category enums.MaterialCategory, brand, model string) ([]selection.Offer, error) {
	var rows []models.SupplierProduct
	err := r.DB(ctx).
		Joins("JOIN suppliers s ON s.id = supplier_products.supplier_id").
		Where("supplier_products.category = ? AND supplier_products.brand = ? AND supplier_products.model = ?", category, brand, model).
		Where("supplier_products.is_active = ? AND s.is_active = ?", true, true).
		Preload("Supplier").
		Order("supplier_products.unit_cost ASC").
		Order("supplier_products.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load %s products %s %s: %w", category, brand, model, err)
	}

	offers := make([]selection.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, fromProduct(row))
	}
	return offers, nil
}

func fromMapping(row models.SupplierOffer) selection.Offer {
	sp := row.SupplierProduct
	unitCost := sp.UnitCost
	if row.SupplierCost.Valid {
		unitCost = row.SupplierCost.Decimal
	}
	leadTime := sp.LeadTimeDays
	if row.LeadTimeDays != nil {
		leadTime = row.LeadTimeDays
	}
	return selection.Offer{
		OfferID:           row.ID,
		SupplierID:        sp.SupplierID,
		SupplierName:      sp.Supplier.Name,
		ProductID:         row.ProductID,
		SupplierProductID: sp.ID,
		SKU:               sp.SKU,
		UnitCost:          unitCost,
		CommissionAmount:  row.CommissionAmount,
		CommissionType:    row.CommissionType,
		LeadTimeDays:      leadTime,
		IsPrimary:         row.IsPrimary,
		IsActive:          row.IsActive && sp.IsActive && sp.Supplier.IsActive,
	}
}

func fromProduct(row models.SupplierProduct) selection.Offer {
	return selection.Offer{
		SupplierID:        row.SupplierID,
		SupplierName:      row.Supplier.Name,
		SupplierProductID: row.ID,
		SKU:               row.SKU,
		UnitCost:          row.UnitCost,
		CommissionType:    enums.CommissionTypeFixed,
		LeadTimeDays:      row.LeadTimeDays,
		IsActive:          row.IsActive && row.Supplier.IsActive,
	}
}
