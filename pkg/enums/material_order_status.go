package enums

// MaterialOrderStatus tracks a purchase order after generation.
type MaterialOrderStatus string

const (
	MaterialOrderStatusDraft         MaterialOrderStatus = "DRAFT"
	MaterialOrderStatusPendingReview MaterialOrderStatus = "PENDING_REVIEW"
	MaterialOrderStatusSent          MaterialOrderStatus = "SENT"
	MaterialOrderStatusConfirmed     MaterialOrderStatus = "CONFIRMED"
	MaterialOrderStatusInTransit     MaterialOrderStatus = "IN_TRANSIT"
	MaterialOrderStatusDelivered     MaterialOrderStatus = "DELIVERED"
	MaterialOrderStatusCancelled     MaterialOrderStatus = "CANCELLED"
)

// materialOrderFlow is the forward progression; CANCELLED sits outside it.
var materialOrderFlow = []MaterialOrderStatus{
	MaterialOrderStatusDraft,
	MaterialOrderStatusPendingReview,
	MaterialOrderStatusSent,
	MaterialOrderStatusConfirmed,
	MaterialOrderStatusInTransit,
	MaterialOrderStatusDelivered,
}

var validMaterialOrderStatuses = append(append([]MaterialOrderStatus{}, materialOrderFlow...), MaterialOrderStatusCancelled)

// MaterialOrderStatuses lists every status, forward flow first.
func MaterialOrderStatuses() []MaterialOrderStatus {
	return append([]MaterialOrderStatus{}, validMaterialOrderStatuses...)
}

// String implements fmt.Stringer.
func (s MaterialOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MaterialOrderStatus.
func (s MaterialOrderStatus) IsValid() bool {
	return oneOf(s, validMaterialOrderStatuses)
}

// IsTerminal reports whether no further transitions are allowed.
func (s MaterialOrderStatus) IsTerminal() bool {
	return s == MaterialOrderStatusDelivered || s == MaterialOrderStatusCancelled
}

// Next returns the following status in the forward flow.
func (s MaterialOrderStatus) Next() (MaterialOrderStatus, bool) {
	for i, candidate := range materialOrderFlow {
		if candidate == s && i+1 < len(materialOrderFlow) {
			return materialOrderFlow[i+1], true
		}
	}
	return "", false
}

// CanTransitionTo allows one step forward, or cancellation of any order not
// yet delivered or cancelled.
func (s MaterialOrderStatus) CanTransitionTo(target MaterialOrderStatus) bool {
	if !s.IsValid() || !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == MaterialOrderStatusCancelled {
		return true
	}
	next, ok := s.Next()
	return ok && next == target
}

// ParseMaterialOrderStatus converts raw input into a MaterialOrderStatus.
func ParseMaterialOrderStatus(value string) (MaterialOrderStatus, error) {
	return parse("material order status", value, validMaterialOrderStatuses)
}
