package materials

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/types"
)

// JobSpec is the immutable technical snapshot of an installation job.
type JobSpec struct {
	JobID              uuid.UUID
	SystemSizeKw       decimal.Decimal
	PanelCount         int
	BatteryCapacityKwh decimal.Decimal
	InverterModel      string
	Components         types.SelectedComponents
}

// MaterialItem is one bill-of-materials line. ProductID is set for main
// components only; accessories are matched on category, brand and model.
type MaterialItem struct {
	Category  enums.MaterialCategory `json:"category"`
	Type      string                 `json:"type"`
	Brand     string                 `json:"brand"`
	Model     string                 `json:"model"`
	Quantity  int                    `json:"quantity"`
	Unit      string                 `json:"unit"`
	ProductID *uuid.UUID             `json:"productId,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
}

// Description renders the line the way it appears on a purchase order.
func (m MaterialItem) Description() string {
	return m.Type + " - " + m.Brand + " " + m.Model
}
