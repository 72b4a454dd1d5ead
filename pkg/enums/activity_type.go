package enums

// ActivityType labels activity_logs rows written by this service.
type ActivityType string

const (
	ActivityMaterialOrdersCreated      ActivityType = "MATERIAL_ORDERS_CREATED"
	ActivityMaterialOrderStatusChanged ActivityType = "MATERIAL_ORDER_STATUS_CHANGED"
)

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}
