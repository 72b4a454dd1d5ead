package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

// MaterialOrdersCreatedEvent announces the purchase orders raised for a job.
type MaterialOrdersCreatedEvent struct {
	JobID           uuid.UUID               `json:"job_id"`
	Strategy        enums.SelectionStrategy `json:"strategy"`
	Orders          []MaterialOrderRef      `json:"orders"`
	TotalCost       decimal.Decimal         `json:"total_cost"`
	UnresolvedCount int                     `json:"unresolved_count"`
	ErrorCount      int                     `json:"error_count"`
}

// MaterialOrderRef summarises one purchase order inside an event.
type MaterialOrderRef struct {
	OrderID      uuid.UUID       `json:"order_id"`
	PONumber     string          `json:"po_number"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
}

// MaterialOrderStatusChangedEvent is emitted on every purchase order status move.
type MaterialOrderStatusChangedEvent struct {
	OrderID    uuid.UUID                 `json:"order_id"`
	JobID      uuid.UUID                 `json:"job_id"`
	PONumber   string                    `json:"po_number"`
	SupplierID uuid.UUID                 `json:"supplier_id"`
	From       enums.MaterialOrderStatus `json:"from"`
	To         enums.MaterialOrderStatus `json:"to"`
	ChangedAt  time.Time                 `json:"changed_at"`
	SentTo     *string                   `json:"sent_to,omitempty"`
}
