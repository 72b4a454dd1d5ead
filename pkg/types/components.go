package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SelectedComponents is the design snapshot stored on an installation job.
// Each main component is its own typed variant; a nil pointer means the
// component was not selected.
type SelectedComponents struct {
	Panel    *PanelComponent    `json:"panel,omitempty"`
	Battery  *BatteryComponent  `json:"battery,omitempty"`
	Inverter *InverterComponent `json:"inverter,omitempty"`
}

// ComponentRef carries the fields shared by every selected component.
type ComponentRef struct {
	ProductID    uuid.UUID `json:"productId"`
	Brand        string    `json:"brand,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Model        string    `json:"model"`
}

// DisplayBrand falls back to the manufacturer when no brand was captured.
func (c ComponentRef) DisplayBrand() string {
	if c.Brand != "" {
		return c.Brand
	}
	return c.Manufacturer
}

type PanelComponent struct {
	ComponentRef
	WattageW int `json:"wattageW,omitempty"`
}

type BatteryComponent struct {
	ComponentRef
	CapacityKwh decimal.Decimal `json:"capacityKwh"`
}

type InverterComponent struct {
	ComponentRef
	RatedPowerKw decimal.Decimal `json:"ratedPowerKw"`
}

// Value serializes the components to JSON.
func (s SelectedComponents) Value() (driver.Value, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes a JSON column into the components struct.
func (s *SelectedComponents) Scan(value interface{}) error {
	if value == nil {
		*s = SelectedComponents{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
