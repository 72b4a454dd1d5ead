package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/activity"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/solarpo-backend/pkg/pagination"
)

// StatusUpdateInput moves one purchase order along its lifecycle.
type StatusUpdateInput struct {
	OrderID          uuid.UUID
	Status           enums.MaterialOrderStatus
	SentTo           *string
	ExpectedDelivery *time.Time
	Actor            *outbox.ActorRef
}

// Service runs the purchase order workflow after generation.
type Service struct {
	repo     Repository
	tx       txRunner
	activity activityRecorder
	outbox   outboxPublisher
	now      func() time.Time
}

// NewService builds the purchase order workflow service.
func NewService(repo Repository, tx txRunner, activity activityRecorder, outbox outboxPublisher) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{repo: repo, tx: tx, activity: activity, outbox: outbox, now: time.Now}, nil
}

// ListByJob returns the orders of a job with their items.
func (s *Service) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialOrder, error) {
	orders, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material orders")
	}
	return orders, nil
}

// ListParams filters the cross-job order listing.
type ListParams struct {
	Status     *enums.MaterialOrderStatus
	SupplierID *uuid.UUID
	Limit      int
	Cursor     string
}

// ListResult is one page of orders. Cursor is empty on the last page.
type ListResult struct {
	Orders []models.MaterialOrder
	Cursor string
}

// List pages through orders across jobs, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material order status")
	}
	query := listOrdersQuery{
		Status:     params.Status,
		SupplierID: params.SupplierID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material orders")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Orders: rows, Cursor: cursor}, nil
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.MaterialOrder, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material order")
	}
	return order, nil
}

// UpdateStatus applies a single forward step or a cancellation, stamps the
// matching timestamp and records the change. Repeating the current status is
// a no-op.
func (s *Service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.MaterialOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material order status")
	}

	var updated *models.MaterialOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "material order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material order")
		}
		if order.Status == input.Status {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move material order from %s to %s", order.Status, input.Status))
		}

		from := order.Status
		now := s.now().UTC()
		updates := statusUpdates(input, now)
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material order status")
		}
		applyUpdates(order, input, now)

		if err := s.activity.Record(ctx, tx, statusActivity(order, from, input.Actor)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record activity")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventMaterialOrderStatusChanged,
			AggregateType: enums.AggregateMaterialOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			OccurredAt:    now,
			Data: payloads.MaterialOrderStatusChangedEvent{
				OrderID:    order.ID,
				JobID:      order.JobID,
				PONumber:   order.PONumber,
				SupplierID: order.SupplierID,
				From:       from,
				To:         order.Status,
				ChangedAt:  now,
				SentTo:     order.SentTo,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func statusUpdates(input StatusUpdateInput, now time.Time) map[string]any {
	updates := map[string]any{"status": input.Status}
	switch input.Status {
	case enums.MaterialOrderStatusSent:
		updates["sent_at"] = now
		if input.SentTo != nil {
			updates["sent_to"] = *input.SentTo
		}
	case enums.MaterialOrderStatusConfirmed:
		updates["confirmed_at"] = now
	case enums.MaterialOrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.MaterialOrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	if input.ExpectedDelivery != nil {
		updates["expected_delivery"] = input.ExpectedDelivery.UTC()
	}
	return updates
}

func applyUpdates(order *models.MaterialOrder, input StatusUpdateInput, now time.Time) {
	order.Status = input.Status
	switch input.Status {
	case enums.MaterialOrderStatusSent:
		order.SentAt = &now
		if input.SentTo != nil {
			sentTo := *input.SentTo
			order.SentTo = &sentTo
		}
	case enums.MaterialOrderStatusConfirmed:
		order.ConfirmedAt = &now
	case enums.MaterialOrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.MaterialOrderStatusCancelled:
		order.CancelledAt = &now
	}
	if input.ExpectedDelivery != nil {
		expected := input.ExpectedDelivery.UTC()
		order.ExpectedDelivery = &expected
	}
}

func statusActivity(order *models.MaterialOrder, from enums.MaterialOrderStatus, actor *outbox.ActorRef) models.ActivityLog {
	jobID := order.JobID
	entry := models.ActivityLog{
		EntityType:  activity.EntityMaterialOrder,
		EntityID:    order.ID,
		JobID:       &jobID,
		Type:        enums.ActivityMaterialOrderStatusChanged,
		Description: fmt.Sprintf("%s moved from %s to %s", order.PONumber, from, order.Status),
		Metadata: datatypes.JSONMap{
			"poNumber": order.PONumber,
			"from":     string(from),
			"to":       string(order.Status),
		},
	}
	if actor != nil && actor.Name != "" {
		entry.Metadata["operator"] = actor.Name
	}
	return entry
}
