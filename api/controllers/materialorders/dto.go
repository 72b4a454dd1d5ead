package materialorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/internal/automation"
	"github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

type orderItemResponse struct {
	Position          int                    `json:"position"`
	Category          enums.MaterialCategory `json:"category"`
	ItemType          string                 `json:"itemType"`
	Brand             string                 `json:"brand"`
	Model             string                 `json:"model"`
	SKU               *string                `json:"sku,omitempty"`
	ProductID         *uuid.UUID             `json:"productId,omitempty"`
	SupplierProductID *uuid.UUID             `json:"supplierProductId,omitempty"`
	Quantity          int                    `json:"quantity"`
	Unit              string                 `json:"unit"`
	UnitCost          decimal.Decimal        `json:"unitCost"`
	LineTotal         decimal.Decimal        `json:"lineTotal"`
	Commission        decimal.Decimal        `json:"commission"`
	SelectionReason   string                 `json:"selectionReason"`
	Notes             *string                `json:"notes,omitempty"`
}

type orderResponse struct {
	ID               *uuid.UUID                `json:"id,omitempty"`
	PONumber         string                    `json:"poNumber,omitempty"`
	JobID            uuid.UUID                 `json:"jobId"`
	SupplierID       uuid.UUID                 `json:"supplierId"`
	SupplierName     string                    `json:"supplierName"`
	Status           enums.MaterialOrderStatus `json:"status"`
	Strategy         enums.SelectionStrategy   `json:"strategy"`
	Subtotal         decimal.Decimal           `json:"subtotal"`
	Tax              decimal.Decimal           `json:"tax"`
	Total            decimal.Decimal           `json:"total"`
	Notes            *string                   `json:"notes,omitempty"`
	SentTo           *string                   `json:"sentTo,omitempty"`
	SentAt           *time.Time                `json:"sentAt,omitempty"`
	ConfirmedAt      *time.Time                `json:"confirmedAt,omitempty"`
	ExpectedDelivery *time.Time                `json:"expectedDelivery,omitempty"`
	DeliveredAt      *time.Time                `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time                `json:"cancelledAt,omitempty"`
	Items            []orderItemResponse       `json:"items"`
	CreatedAt        *time.Time                `json:"createdAt,omitempty"`
}

type listResponse struct {
	Orders []orderResponse `json:"orders"`
	Cursor string          `json:"cursor,omitempty"`
}

type ensureResponse struct {
	JobID      uuid.UUID                `json:"jobId"`
	RunID      *uuid.UUID               `json:"runId,omitempty"`
	Created    bool                     `json:"created"`
	Orders     []orderResponse          `json:"orders"`
	Unresolved []orders.UnresolvedItem  `json:"unresolved"`
	Errors     []orders.GenerationError `json:"errors"`
	Summary    orders.Summary           `json:"summary"`
}

type previewResponse struct {
	JobID      uuid.UUID                `json:"jobId"`
	JobStatus  enums.JobStatus          `json:"jobStatus"`
	Strategy   enums.SelectionStrategy  `json:"strategy"`
	Lines      []automation.PreviewLine `json:"lines"`
	Drafts     []orderResponse          `json:"drafts"`
	Unresolved []orders.UnresolvedItem  `json:"unresolved"`
	Errors     []orders.GenerationError `json:"errors"`
	Summary    orders.Summary           `json:"summary"`
}

type sweepFailureResponse struct {
	JobID     uuid.UUID `json:"jobId"`
	JobNumber string    `json:"jobNumber"`
	Error     string    `json:"error"`
}

type sweepResponse struct {
	Scanned  int                    `json:"scanned"`
	Created  []ensureResponse       `json:"created"`
	Existing int                    `json:"existing"`
	Failures []sweepFailureResponse `json:"failures"`
}

func toOrderResponse(o models.MaterialOrder) orderResponse {
	resp := orderResponse{
		PONumber:         o.PONumber,
		JobID:            o.JobID,
		SupplierID:       o.SupplierID,
		SupplierName:     o.SupplierName,
		Status:           o.Status,
		Strategy:         o.Strategy,
		Subtotal:         o.Subtotal,
		Tax:              o.Tax,
		Total:            o.Total,
		Notes:            o.Notes,
		SentTo:           o.SentTo,
		SentAt:           o.SentAt,
		ConfirmedAt:      o.ConfirmedAt,
		ExpectedDelivery: o.ExpectedDelivery,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		Items:            make([]orderItemResponse, 0, len(o.Items)),
	}
	// drafts from a preview were never written
	if o.ID != uuid.Nil {
		id := o.ID
		resp.ID = &id
	}
	if !o.CreatedAt.IsZero() {
		created := o.CreatedAt
		resp.CreatedAt = &created
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			Position:          item.Position,
			Category:          item.Category,
			ItemType:          item.ItemType,
			Brand:             item.Brand,
			Model:             item.Model,
			SKU:               item.SKU,
			ProductID:         item.ProductID,
			SupplierProductID: item.SupplierProductID,
			Quantity:          item.Quantity,
			Unit:              item.Unit,
			UnitCost:          item.UnitCost,
			LineTotal:         item.LineTotal,
			Commission:        item.Commission,
			SelectionReason:   item.SelectionReason,
			Notes:             item.Notes,
		})
	}
	return resp
}

func toOrderResponses(list []models.MaterialOrder) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toEnsureResponse(out *automation.Outcome) ensureResponse {
	resp := ensureResponse{
		JobID:      out.JobID,
		Created:    out.Created,
		Orders:     toOrderResponses(out.Orders),
		Unresolved: nonNilUnresolved(out.Unresolved),
		Errors:     nonNilErrors(out.Errors),
		Summary:    out.Summary,
	}
	if out.RunID != uuid.Nil {
		runID := out.RunID
		resp.RunID = &runID
	}
	return resp
}

func toPreviewResponse(p *automation.Preview) previewResponse {
	lines := p.Lines
	if lines == nil {
		lines = []automation.PreviewLine{}
	}
	return previewResponse{
		JobID:      p.JobID,
		JobStatus:  p.JobStatus,
		Strategy:   p.Strategy,
		Lines:      lines,
		Drafts:     toOrderResponses(p.Drafts),
		Unresolved: nonNilUnresolved(p.Unresolved),
		Errors:     nonNilErrors(p.Errors),
		Summary:    p.Summary,
	}
}

func toSweepResponse(res *automation.SweepResult) sweepResponse {
	resp := sweepResponse{
		Scanned:  res.Scanned,
		Created:  make([]ensureResponse, 0, len(res.Created)),
		Existing: res.Existing,
		Failures: make([]sweepFailureResponse, 0, len(res.Failures)),
	}
	for _, out := range res.Created {
		resp.Created = append(resp.Created, toEnsureResponse(out))
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, sweepFailureResponse{JobID: f.JobID, JobNumber: f.JobNumber, Error: f.Err.Error()})
	}
	return resp
}

func nonNilUnresolved(items []orders.UnresolvedItem) []orders.UnresolvedItem {
	if items == nil {
		return []orders.UnresolvedItem{}
	}
	return items
}

func nonNilErrors(items []orders.GenerationError) []orders.GenerationError {
	if items == nil {
		return []orders.GenerationError{}
	}
	return items
}
