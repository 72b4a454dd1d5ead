package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/activity"
	dbpkg "github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox/payloads"
)

const maxPOAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type poAllocator interface {
	NextPONumberTx(ctx context.Context, tx *gorm.DB, scope time.Time) (string, error)
}

type jobStatusWriter interface {
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.JobStatus) error
}

type activityRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry models.ActivityLog) error
}

// AggregatorDeps wires the aggregator's collaborators.
type AggregatorDeps struct {
	Tx       txRunner
	Repo     Repository
	PO       poAllocator
	Jobs     jobStatusWriter
	Activity activityRecorder
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

// AggregatorConfig carries the tax rate and the job status set on success.
type AggregatorConfig struct {
	GSTRate       decimal.Decimal
	OrderedStatus enums.JobStatus
}

// Aggregator turns selected lines into persisted per-supplier orders.
type Aggregator struct {
	deps AggregatorDeps
	cfg  AggregatorConfig
	now  func() time.Time
}

func NewAggregator(deps AggregatorDeps, cfg AggregatorConfig) (*Aggregator, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.PO == nil {
		return nil, fmt.Errorf("po number allocator required")
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("job status writer required")
	}
	if deps.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.GSTRate.IsNegative() {
		return nil, fmt.Errorf("gst rate must not be negative")
	}
	if cfg.OrderedStatus == "" {
		cfg.OrderedStatus = enums.JobStatusMaterialsOrdered
	}
	return &Aggregator{deps: deps, cfg: cfg, now: time.Now}, nil
}

// Aggregate persists the run in its own transaction.
func (a *Aggregator) Aggregate(ctx context.Context, jobID uuid.UUID, items []SelectedItem) (*AggregateResult, error) {
	var result *AggregateResult
	err := a.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := a.Persist(ctx, tx, jobID, items)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Persist writes one order per supplier group, the job status, the activity
// entry and the outbox event on tx. Any failure must roll tx back.
func (a *Aggregator) Persist(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, items []SelectedItem) (*AggregateResult, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	ctx = a.withJob(ctx, jobID)

	drafts, unresolved, genErrs := Plan(jobID, items, a.cfg.GSTRate)
	repo := a.deps.Repo.WithTx(tx)

	orders := make([]models.MaterialOrder, 0, len(drafts))
	for i := range drafts {
		order := drafts[i]
		if err := a.createWithPONumber(ctx, tx, repo, &order); err != nil {
			return nil, persistenceError("create material order", err)
		}
		a.logOrder(ctx, order)
		orders = append(orders, order)
	}

	if len(genErrs) == 0 {
		if err := a.deps.Jobs.UpdateStatus(ctx, tx, jobID, a.cfg.OrderedStatus); err != nil {
			return nil, persistenceError("update job status", err)
		}
	}

	summary := Summarize(orders, len(unresolved), len(genErrs))
	if err := a.deps.Activity.Record(ctx, tx, activityEntry(jobID, orders, summary)); err != nil {
		return nil, persistenceError("record activity", err)
	}
	if len(orders) > 0 {
		if err := a.deps.Outbox.Emit(ctx, tx, createdEvent(jobID, orders, summary)); err != nil {
			return nil, persistenceError("emit outbox event", err)
		}
	}

	a.logUnresolved(ctx, unresolved, genErrs)
	return &AggregateResult{
		Orders:     orders,
		Unresolved: unresolved,
		Errors:     genErrs,
		Summary:    summary,
	}, nil
}

func (a *Aggregator) createWithPONumber(ctx context.Context, tx *gorm.DB, repo Repository, order *models.MaterialOrder) error {
	var lastErr error
	for attempt := 1; attempt <= maxPOAttempts; attempt++ {
		po, err := a.deps.PO.NextPONumberTx(ctx, tx, a.now())
		if err != nil {
			return err
		}
		order.PONumber = po

		const savepoint = "material_order_insert"
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return err
		}
		err = repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return multierr.Append(err, rbErr)
		}
		if !dbpkg.IsUniqueViolation(err, "po_number") {
			return err
		}
		lastErr = err
		resetIDs(order)
		if a.deps.Logger != nil {
			warnCtx := a.deps.Logger.WithFields(ctx, map[string]any{"po_number": po, "attempt": attempt})
			a.deps.Logger.Warn(warnCtx, "material_orders.po_number.collision")
		}
	}
	return fmt.Errorf("po number still colliding after %d attempts: %w", maxPOAttempts, lastErr)
}

func resetIDs(order *models.MaterialOrder) {
	order.ID = uuid.Nil
	for i := range order.Items {
		order.Items[i].ID = uuid.Nil
		order.Items[i].OrderID = uuid.Nil
	}
}

func persistenceError(step string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, ErrPersistence.Message()).
		WithDetails(map[string]any{"step": step})
}

func activityEntry(jobID uuid.UUID, orders []models.MaterialOrder, summary Summary) models.ActivityLog {
	poNumbers := make([]string, 0, len(orders))
	for _, o := range orders {
		poNumbers = append(poNumbers, o.PONumber)
	}
	id := jobID
	description := fmt.Sprintf("Created %d material order(s) totalling $%s",
		summary.TotalOrders, summary.TotalCost.StringFixed(moneyPlaces))
	return models.ActivityLog{
		EntityType:  activity.EntityInstallationJob,
		EntityID:    jobID,
		JobID:       &id,
		Type:        enums.ActivityMaterialOrdersCreated,
		Description: description,
		Metadata: datatypes.JSONMap{
			"orderCount":      summary.TotalOrders,
			"totalCost":       summary.TotalCost.StringFixed(moneyPlaces),
			"poNumbers":       poNumbers,
			"unresolvedCount": summary.UnresolvedCount,
			"errorCount":      summary.ErrorCount,
		},
	}
}

func createdEvent(jobID uuid.UUID, orders []models.MaterialOrder, summary Summary) outbox.DomainEvent {
	refs := make([]payloads.MaterialOrderRef, 0, len(orders))
	for _, o := range orders {
		refs = append(refs, payloads.MaterialOrderRef{
			OrderID:      o.ID,
			PONumber:     o.PONumber,
			SupplierID:   o.SupplierID,
			SupplierName: o.SupplierName,
			ItemCount:    len(o.Items),
			Total:        o.Total,
		})
	}
	return outbox.DomainEvent{
		EventType:     enums.EventMaterialOrdersCreated,
		AggregateType: enums.AggregateInstallationJob,
		AggregateID:   jobID,
		Data: payloads.MaterialOrdersCreatedEvent{
			JobID:           jobID,
			Strategy:        orders[0].Strategy,
			Orders:          refs,
			TotalCost:       summary.TotalCost,
			UnresolvedCount: summary.UnresolvedCount,
			ErrorCount:      summary.ErrorCount,
		},
	}
}

func (a *Aggregator) withJob(ctx context.Context, jobID uuid.UUID) context.Context {
	if a.deps.Logger == nil {
		return ctx
	}
	return a.deps.Logger.WithJobID(ctx, jobID.String())
}

func (a *Aggregator) logOrder(ctx context.Context, order models.MaterialOrder) {
	if a.deps.Logger == nil {
		return
	}
	logCtx := a.deps.Logger.WithSupplierID(ctx, order.SupplierID.String())
	logCtx = a.deps.Logger.WithFields(logCtx, map[string]any{
		"po_number":  order.PONumber,
		"item_count": len(order.Items),
		"subtotal":   order.Subtotal.StringFixed(moneyPlaces),
		"total":      order.Total.StringFixed(moneyPlaces),
	})
	a.deps.Logger.Info(logCtx, "material_orders.group.created")
}

func (a *Aggregator) logUnresolved(ctx context.Context, unresolved []UnresolvedItem, genErrs []GenerationError) {
	if a.deps.Logger == nil || len(unresolved) == 0 {
		return
	}
	items := make([]string, 0, len(unresolved))
	for _, u := range unresolved {
		items = append(items, u.Item.Description())
	}
	fields := map[string]any{"unresolved": items}
	var combined error
	for _, e := range genErrs {
		combined = multierr.Append(combined, e)
	}
	if combined != nil {
		fields["errors"] = combined.Error()
	}
	a.deps.Logger.Warn(a.deps.Logger.WithFields(ctx, fields), "material_orders.unresolved_items")
}
