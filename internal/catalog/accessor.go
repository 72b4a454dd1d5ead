package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/solarpo-backend/internal/materials"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

type offerStore interface {
	ActiveOffers(ctx context.Context, productID uuid.UUID) ([]selection.Offer, error)
	MatchingProducts(ctx context.Context, category enums.MaterialCategory, brand, model string) ([]selection.Offer, error)
}

// Accessor resolves the candidate offers for a bill-of-materials line.
type Accessor struct {
	store offerStore
}

func NewAccessor(store offerStore) *Accessor {
	return &Accessor{store: store}
}

// OffersForItem looks up the product mapping first and falls back to a
// category/brand/model match on the price lists when the item has no product
// id or the product has no active mapping.
func (a *Accessor) OffersForItem(ctx context.Context, item materials.MaterialItem) ([]selection.Offer, error) {
	if item.ProductID != nil {
		offers, err := a.store.ActiveOffers(ctx, *item.ProductID)
		if err != nil {
			return nil, err
		}
		if len(offers) > 0 {
			return offers, nil
		}
	}

	offers, err := a.store.MatchingProducts(ctx, item.Category, item.Brand, item.Model)
	if err != nil {
		return nil, err
	}
	if item.ProductID != nil {
		for i := range offers {
			offers[i].ProductID = *item.ProductID
		}
	}
	return offers, nil
}

// ActiveOffers returns the active supplier mappings for a catalogue product.
func (a *Accessor) ActiveOffers(ctx context.Context, productID uuid.UUID) ([]selection.Offer, error) {
	return a.store.ActiveOffers(ctx, productID)
}
