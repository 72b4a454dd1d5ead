package orders

import "github.com/angelmondragon/solarpo-backend/pkg/enums"

// requiredCategories says whether a missing supplier for a category is an
// error. Accessories are absorbed into the unknown bucket silently.
var requiredCategories = map[enums.MaterialCategory]bool{
	enums.MaterialCategoryPanel:      true,
	enums.MaterialCategoryBattery:    true,
	enums.MaterialCategoryInverter:   true,
	enums.MaterialCategoryMounting:   false,
	enums.MaterialCategoryElectrical: false,
	enums.MaterialCategoryProtection: false,
}

// Required reports whether category must be sourced. Unknown categories are required.
func Required(category enums.MaterialCategory) bool {
	required, ok := requiredCategories[category]
	if !ok {
		return true
	}
	return required
}
