package materialorders

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/solarpo-backend/api/middleware"
	"github.com/angelmondragon/solarpo-backend/api/responses"
	"github.com/angelmondragon/solarpo-backend/api/validators"
	"github.com/angelmondragon/solarpo-backend/internal/automation"
	internalorders "github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/pagination"
)

const (
	maxSentToLen  = 255
	maxSweepLimit = 500
	actorKindAPI  = "admin_api"
)

// Generator is the automation surface the admin API drives.
type Generator interface {
	Ensure(ctx context.Context, req automation.Request) (*automation.Outcome, error)
	Preview(ctx context.Context, jobID uuid.UUID) (*automation.Preview, error)
	Sweep(ctx context.Context, limit int) (*automation.SweepResult, error)
}

// OrderService is the post-generation purchase order workflow.
type OrderService interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialOrder, error)
	List(ctx context.Context, params internalorders.ListParams) (*internalorders.ListResult, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.MaterialOrder, error)
	UpdateStatus(ctx context.Context, input internalorders.StatusUpdateInput) (*models.MaterialOrder, error)
}

type statusUpdateRequest struct {
	Status           string     `json:"status" validate:"required,order_status"`
	SentTo           *string    `json:"sentTo" validate:"omitempty,max=255"`
	ExpectedDelivery *time.Time `json:"expectedDelivery"`
}

// Ensure generates purchase orders for a job unless they already exist.
// It answers 201 when this call created them and 200 otherwise.
func Ensure(gen Generator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order generator unavailable"))
			return
		}
		jobID, err := parseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := gen.Ensure(r.Context(), automation.Request{JobID: jobID, TriggeredBy: automation.TriggerAPI})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if out.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, toEnsureResponse(out))
	}
}

// ListByJob returns a job's purchase orders with their items.
func ListByJob(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order service unavailable"))
			return
		}
		jobID, err := parseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByJob(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponses(list))
	}
}

// List pages through purchase orders across jobs, optionally filtered by
// status and supplier.
func List(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalorders.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseMaterialOrderStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.SupplierID = supplierID

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse{Orders: toOrderResponses(page.Orders), Cursor: page.Cursor})
	}
}

// Detail returns one purchase order.
func Detail(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order service unavailable"))
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(*order))
	}
}

// MaterialList previews the bill of materials and supplier choices for a job.
// Nothing is written.
func MaterialList(gen Generator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order generator unavailable"))
			return
		}
		jobID, err := parseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		preview, err := gen.Preview(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPreviewResponse(preview))
	}
}

// UpdateStatus moves a purchase order one step along its lifecycle or cancels it.
func UpdateStatus(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order service unavailable"))
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req statusUpdateRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseMaterialOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		input := internalorders.StatusUpdateInput{
			OrderID:          orderID,
			Status:           status,
			ExpectedDelivery: req.ExpectedDelivery,
			Actor:            actorFromRequest(r),
		}
		if req.SentTo != nil {
			sentTo := validators.SanitizeString(*req.SentTo, maxSentToLen)
			if sentTo != "" {
				input.SentTo = &sentTo
			}
		}

		order, err := svc.UpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(*order))
	}
}

// Sweep generates orders for every ready job that has none yet.
func Sweep(gen Generator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "material order generator unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, maxSweepLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := gen.Sweep(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSweepResponse(res))
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func actorFromRequest(r *http.Request) *outbox.ActorRef {
	return &outbox.ActorRef{Kind: actorKindAPI, Name: middleware.OperatorFromContext(r.Context())}
}
