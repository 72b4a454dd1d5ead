package selection

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

// StrategyConfig is passed explicitly to Select; the engine never reads
// process-wide settings.
type StrategyConfig struct {
	Strategy         enums.SelectionStrategy `json:"strategy" validate:"required,oneof=LOWEST_COST HIGHEST_COMMISSION BALANCED PRIMARY_FIRST FASTEST"`
	CommissionWeight decimal.Decimal         `json:"commissionWeight" validate:"gte=0,lte=1"`
	MaxLeadTimeDays  *int                    `json:"maxLeadTimeDays,omitempty" validate:"omitempty,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the strategy name and numeric bounds.
func (c StrategyConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid strategy config")
	}
	return nil
}

// FromConfig builds a validated StrategyConfig from the procurement settings.
func FromConfig(cfg config.ProcurementConfig) (StrategyConfig, error) {
	strategy, err := enums.ParseSelectionStrategy(cfg.Strategy)
	if err != nil {
		return StrategyConfig{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid strategy config")
	}
	out := StrategyConfig{
		Strategy:         strategy,
		CommissionWeight: cfg.CommissionWeight,
		MaxLeadTimeDays:  cfg.MaxLeadTime(),
	}
	if err := out.Validate(); err != nil {
		return StrategyConfig{}, err
	}
	return out, nil
}
