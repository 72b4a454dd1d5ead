package materials

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/types"
)

const (
	accessoryBrand = "Standard"

	unitPieces  = "pcs"
	unitSingle  = "unit"
	unitMeters  = "meters"
	unitPairs   = "pairs"
	unitRails   = "3.3m lengths"
	bracketNote = "Adjust based on roof type survey"

	acCableMeters   = 20
	conduitMeters   = 30
	cableGlandCount = 10
)

var (
	railSectionMeters  = decimal.RequireFromString("3.3")
	dcMetersPerKw      = decimal.NewFromInt(8)
	panelsPerRailGroup = decimal.NewFromInt(3)
)

// Generate derives the bill of materials for a job. It performs no I/O and
// always returns the same lines in the same order for the same spec.
func Generate(spec JobSpec) []MaterialItem {
	items := make([]MaterialItem, 0, 13)
	comps := spec.Components

	if comps.Panel != nil {
		items = append(items, mainItem(enums.MaterialCategoryPanel, "PV Module", comps.Panel.ComponentRef, spec.PanelCount, unitPieces))
	}
	if spec.BatteryCapacityKwh.IsPositive() && comps.Battery != nil {
		items = append(items, mainItem(enums.MaterialCategoryBattery, "Battery Storage", comps.Battery.ComponentRef, 1, unitSingle))
	}
	if comps.Inverter != nil {
		ref := comps.Inverter.ComponentRef
		if ref.Model == "" {
			ref.Model = spec.InverterModel
		}
		items = append(items, mainItem(enums.MaterialCategoryInverter, "Solar Inverter", ref, 1, unitSingle))
	}

	panels := spec.PanelCount
	items = append(items,
		accessory(enums.MaterialCategoryMounting, "Roof Rails", "Aluminum Rail", railLengths(panels), unitRails, ""),
		accessory(enums.MaterialCategoryMounting, "Roof Brackets", "Tile Hook", ceilDiv(panels, 2), unitPieces, bracketNote),
		accessory(enums.MaterialCategoryMounting, "Panel Clamps", "Mid/End Clamp Set", panels*4, unitPieces, ""),

		accessory(enums.MaterialCategoryElectrical, "DC Cable", "6mm² PV Cable", dcCableMeters(spec.SystemSizeKw), unitMeters, ""),
		accessory(enums.MaterialCategoryElectrical, "AC Cable", "4mm² TPS Cable", acCableMeters, unitMeters, ""),
		accessory(enums.MaterialCategoryElectrical, "DC Isolator", "1000V DC Switch", 1, unitSingle, ""),
		accessory(enums.MaterialCategoryElectrical, "AC Isolator", "2P 32A Switch", 1, unitSingle, ""),
		accessory(enums.MaterialCategoryElectrical, "MC4 Connectors", "MC4 Pair", panels*2, unitPairs, ""),

		accessory(enums.MaterialCategoryProtection, "PVC Conduit", "25mm Conduit", conduitMeters, unitMeters, ""),
		accessory(enums.MaterialCategoryProtection, "Cable Glands", "PG16 Glands", cableGlandCount, unitPieces, ""),
	)

	return items
}

func mainItem(category enums.MaterialCategory, itemType string, ref types.ComponentRef, qty int, unit string) MaterialItem {
	item := MaterialItem{
		Category: category,
		Type:     itemType,
		Brand:    ref.DisplayBrand(),
		Model:    ref.Model,
		Quantity: qty,
		Unit:     unit,
	}
	if ref.ProductID != uuid.Nil {
		id := ref.ProductID
		item.ProductID = &id
	}
	return item
}

func accessory(category enums.MaterialCategory, itemType, model string, qty int, unit, notes string) MaterialItem {
	return MaterialItem{
		Category: category,
		Type:     itemType,
		Brand:    accessoryBrand,
		Model:    model,
		Quantity: qty,
		Unit:     unit,
		Notes:    notes,
	}
}

// railLengths converts ceil(panels/3) × 3.3 m of rail into whole 3.3 m lengths.
func railLengths(panels int) int {
	groups := decimal.NewFromInt(int64(panels)).Div(panelsPerRailGroup).Ceil()
	meters := groups.Mul(railSectionMeters)
	return int(meters.Div(railSectionMeters).Ceil().IntPart())
}

func dcCableMeters(systemSizeKw decimal.Decimal) int {
	return int(systemSizeKw.Mul(dcMetersPerKw).Ceil().IntPart())
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
