package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/types"
)

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Days(n int) *int {
	return &n
}

// SeedSupplier inserts an active supplier.
func SeedSupplier(t *testing.T, conn *gorm.DB, name string) models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name, IsActive: true}
	require.NoError(t, conn.Create(&s).Error)
	return s
}

// SeedSupplierProduct inserts an active price-list line.
func SeedSupplierProduct(t *testing.T, conn *gorm.DB, supplier models.Supplier, category enums.MaterialCategory, brand, model, unitCost string) models.SupplierProduct {
	t.Helper()
	p := models.SupplierProduct{
		SupplierID: supplier.ID,
		Category:   category,
		Brand:      brand,
		Model:      model,
		SKU:        supplier.Name + "-" + model,
		UnitCost:   Dec(unitCost),
		IsActive:   true,
	}
	require.NoError(t, conn.Create(&p).Error)
	p.Supplier = supplier
	return p
}

// OfferOption adjusts an offer before it is inserted.
type OfferOption func(*models.SupplierOffer)

func Primary() OfferOption {
	return func(o *models.SupplierOffer) { o.IsPrimary = true }
}

func Inactive() OfferOption {
	return func(o *models.SupplierOffer) { o.IsActive = false }
}

func Commission(kind enums.CommissionType, amount string) OfferOption {
	return func(o *models.SupplierOffer) {
		o.CommissionType = kind
		o.CommissionAmount = Dec(amount)
	}
}

func CostOverride(cost string) OfferOption {
	return func(o *models.SupplierOffer) { o.SupplierCost = decimal.NewNullDecimal(Dec(cost)) }
}

func LeadTime(days int) OfferOption {
	return func(o *models.SupplierOffer) { o.LeadTimeDays = Days(days) }
}

// SeedOffer maps productID onto a supplier product. Defaults to an active,
// non-primary offer with no commission.
func SeedOffer(t *testing.T, conn *gorm.DB, productID uuid.UUID, sp models.SupplierProduct, opts ...OfferOption) models.SupplierOffer {
	t.Helper()
	o := models.SupplierOffer{
		ProductID:         productID,
		SupplierProductID: sp.ID,
		CommissionAmount:  decimal.Zero,
		CommissionType:    enums.CommissionTypeFixed,
		IsActive:          true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	require.NoError(t, conn.Create(&o).Error)
	return o
}

// SeedJob inserts an installation job.
func SeedJob(t *testing.T, conn *gorm.DB, job models.InstallationJob) models.InstallationJob {
	t.Helper()
	if job.JobNumber == "" {
		job.JobNumber = "JOB-" + uuid.NewString()[:8]
	}
	if job.Status == "" {
		job.Status = enums.JobStatusReadyToSchedule
	}
	require.NoError(t, conn.Create(&job).Error)
	return job
}

// StandardComponents is a panel, battery and inverter selection.
func StandardComponents(panel, battery, inverter uuid.UUID) types.SelectedComponents {
	return types.SelectedComponents{
		Panel: &types.PanelComponent{
			ComponentRef: types.ComponentRef{ProductID: panel, Brand: "Jinko", Model: "Tiger Neo 440W"},
			WattageW:     440,
		},
		Battery: &types.BatteryComponent{
			ComponentRef: types.ComponentRef{ProductID: battery, Brand: "Tesla", Model: "Powerwall 2"},
			CapacityKwh:  Dec("13.5"),
		},
		Inverter: &types.InverterComponent{
			ComponentRef: types.ComponentRef{ProductID: inverter, Brand: "Fronius", Model: "Primo 6.0"},
			RatedPowerKw: Dec("6.0"),
		},
	}
}
