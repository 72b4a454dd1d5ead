package enums

// CommissionType describes how a supplier offer's commission amount is read.
type CommissionType string

const (
	CommissionTypeFixed      CommissionType = "fixed"
	CommissionTypePercentage CommissionType = "percentage"
)

var validCommissionTypes = []CommissionType{
	CommissionTypeFixed,
	CommissionTypePercentage,
}

// String implements fmt.Stringer.
func (c CommissionType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionType.
func (c CommissionType) IsValid() bool {
	return oneOf(c, validCommissionTypes)
}

// ParseCommissionType converts raw input into a CommissionType.
func ParseCommissionType(value string) (CommissionType, error) {
	return parse("commission type", value, validCommissionTypes)
}
