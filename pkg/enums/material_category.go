package enums

// MaterialCategory groups bill-of-materials lines.
type MaterialCategory string

const (
	MaterialCategoryPanel      MaterialCategory = "Panel"
	MaterialCategoryBattery    MaterialCategory = "Battery"
	MaterialCategoryInverter   MaterialCategory = "Inverter"
	MaterialCategoryMounting   MaterialCategory = "Mounting"
	MaterialCategoryElectrical MaterialCategory = "Electrical"
	MaterialCategoryProtection MaterialCategory = "Protection"
)

var validMaterialCategories = []MaterialCategory{
	MaterialCategoryPanel,
	MaterialCategoryBattery,
	MaterialCategoryInverter,
	MaterialCategoryMounting,
	MaterialCategoryElectrical,
	MaterialCategoryProtection,
}

// String implements fmt.Stringer.
func (c MaterialCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known MaterialCategory.
func (c MaterialCategory) IsValid() bool {
	return oneOf(c, validMaterialCategories)
}

// ParseMaterialCategory converts raw input into a MaterialCategory.
func ParseMaterialCategory(value string) (MaterialCategory, error) {
	return parse("material category", value, validMaterialCategories)
}
