package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/materials"
	"github.com/angelmondragon/solarpo-backend/internal/orders"
	"github.com/angelmondragon/solarpo-backend/internal/selection"
	dbpkg "github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/metrics"
)

const (
	TriggerAPI   = "api"
	TriggerCLI   = "cli"
	TriggerSweep = "sweep"
)

var (
	ErrMissingJobOrSpec     = pkgerrors.New(pkgerrors.CodeNotFound, "installation job or technical spec missing")
	ErrJobNotReady          = pkgerrors.New(pkgerrors.CodeStateConflict, "installation job is not ready for material ordering")
	ErrGenerationInProgress = pkgerrors.New(pkgerrors.CodeConflict, "material order generation already in progress")

	errAlreadyClaimed = errors.New("generation run already claimed")
)

// IsRetryable reports whether a failed Ensure may succeed later. A held
// generation lock is retryable even though its code is a plain conflict.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrGenerationInProgress) {
		return true
	}
	return pkgerrors.IsRetryable(err)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type jobReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.InstallationJob, error)
	ListReadyWithoutOrders(ctx context.Context, status enums.JobStatus, limit int) ([]models.InstallationJob, error)
}

type orderReader interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialOrder, error)
}

type offerSource interface {
	OffersForItem(ctx context.Context, item materials.MaterialItem) ([]selection.Offer, error)
}

type orderPersister interface {
	Persist(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, items []orders.SelectedItem) (*orders.AggregateResult, error)
}

type runStore interface {
	Claim(ctx context.Context, tx *gorm.DB, run *models.MaterialGenerationRun) error
	Finish(ctx context.Context, tx *gorm.DB, runID uuid.UUID, result *orders.AggregateResult, completedAt time.Time) error
	FindByJob(ctx context.Context, jobID uuid.UUID) (*models.MaterialGenerationRun, error)
	DiscardFinished(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) error
}

// Deps wires the gate's collaborators. Metrics and Logger may be nil.
type Deps struct {
	Tx         txRunner
	Jobs       jobReader
	Orders     orderReader
	Catalog    offerSource
	Aggregator orderPersister
	Runs       runStore
	Locks      Locker
	Metrics    *metrics.ProcurementMetrics
	Logger     *logger.Logger
}

// Config carries the run settings resolved from the environment.
type Config struct {
	Strategy    selection.StrategyConfig
	GSTRate     decimal.Decimal
	ReadyStatus enums.JobStatus
}

// Request identifies the job and who asked for the run.
type Request struct {
	JobID       uuid.UUID
	TriggeredBy string
}

// Outcome is what a run produced. Created is false when the orders already
// existed; item-level failures sit in Errors next to the created orders.
type Outcome struct {
	JobID      uuid.UUID
	RunID      uuid.UUID
	Created    bool
	Orders     []models.MaterialOrder
	Unresolved []orders.UnresolvedItem
	Errors     []orders.GenerationError
	Summary    orders.Summary
}

// Err combines the item-level errors, nil when there are none.
func (o *Outcome) Err() error {
	if o == nil {
		return nil
	}
	var combined error
	for _, e := range o.Errors {
		combined = multierr.Append(combined, e)
	}
	return combined
}

// Gate decides whether a job gets material orders and runs the pipeline at
// most once per job.
type Gate struct {
	deps Deps
	cfg  Config
	now  func() time.Time
}

func NewGate(deps Deps, cfg Config) (*Gate, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("job reader required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog accessor required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("order aggregator required")
	}
	if deps.Runs == nil {
		return nil, fmt.Errorf("generation run store required")
	}
	if deps.Locks == nil {
		return nil, fmt.Errorf("job locker required")
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, err
	}
	if cfg.GSTRate.IsNegative() {
		return nil, fmt.Errorf("gst rate must not be negative")
	}
	if cfg.ReadyStatus == "" {
		cfg.ReadyStatus = enums.JobStatusReadyToSchedule
	}
	return &Gate{deps: deps, cfg: cfg, now: time.Now}, nil
}

// EnsureMaterialOrders creates the job's orders unless they already exist.
// Item-level errors do not fail the call; use Ensure to read them.
func (g *Gate) EnsureMaterialOrders(ctx context.Context, jobID uuid.UUID) (bool, []models.MaterialOrder, error) {
	out, err := g.Ensure(ctx, Request{JobID: jobID, TriggeredBy: TriggerAPI})
	if err != nil {
		return false, nil, err
	}
	return out.Created, out.Orders, nil
}

// Ensure runs NOT_READY → GENERATING → DONE for one job.
func (g *Gate) Ensure(ctx context.Context, req Request) (*Outcome, error) {
	start := g.now()
	ctx = g.withJob(ctx, req.JobID)
	runOutcome := metrics.OutcomeFailed
	defer func() {
		g.deps.Metrics.ObserveRun(runOutcome, g.now().Sub(start))
	}()

	job, err := g.loadJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	existing, err := g.existing(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		runOutcome = metrics.OutcomeExisting
		return existing, nil
	}

	if job.Status != g.cfg.ReadyStatus {
		runOutcome = metrics.OutcomeNotReady
		return nil, pkgerrors.New(ErrJobNotReady.Code(), ErrJobNotReady.Message()).
			WithDetails(map[string]any{"jobId": job.ID, "status": job.Status, "required": g.cfg.ReadyStatus})
	}

	lock, err := g.deps.Locks.ForJob(job.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build generation lock")
	}
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire generation lock")
	}
	if !acquired {
		runOutcome = metrics.OutcomeInProgress
		return nil, pkgerrors.New(ErrGenerationInProgress.Code(), ErrGenerationInProgress.Message()).
			WithDetails(map[string]any{"jobId": job.ID})
	}
	defer g.release(ctx, lock)

	spec, err := materials.SpecFromJob(*job)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, ErrMissingJobOrSpec)
	}

	items := materials.Generate(spec)
	g.info(ctx, "material_orders.generation.start", map[string]any{
		"strategy":      g.cfg.Strategy.Strategy,
		"item_count":    len(items),
		"triggered_by":  req.TriggeredBy,
		"system_kw":     spec.SystemSizeKw.String(),
		"panel_count":   spec.PanelCount,
		"has_battery":   spec.BatteryCapacityKwh.IsPositive(),
		"inverter_type": spec.InverterModel,
	})

	selected, err := g.selectItems(ctx, items)
	if err != nil {
		g.logError(ctx, "material_orders.generation.failed", err)
		return nil, err
	}

	var (
		result *orders.AggregateResult
		run    *models.MaterialGenerationRun
	)
	err = g.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := g.deps.Runs.DiscardFinished(ctx, tx, job.ID); err != nil {
			return runPersistenceError("discard previous generation run", err)
		}
		run = newRun(job.ID, g.cfg.Strategy.Strategy, req.TriggeredBy, start)
		if err := g.deps.Runs.Claim(ctx, tx, run); err != nil {
			if dbpkg.IsUniqueViolation(err, "material_generation_runs") {
				return errAlreadyClaimed
			}
			return runPersistenceError("claim generation run", err)
		}
		res, err := g.deps.Aggregator.Persist(ctx, tx, job.ID, selected)
		if err != nil {
			return err
		}
		if err := g.deps.Runs.Finish(ctx, tx, run.ID, res, g.now()); err != nil {
			return runPersistenceError("finish generation run", err)
		}
		result = res
		return nil
	})
	if errors.Is(err, errAlreadyClaimed) {
		out, lookupErr := g.existing(ctx, job.ID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		runOutcome = metrics.OutcomeExisting
		if out == nil {
			out = &Outcome{JobID: job.ID}
		}
		return out, nil
	}
	if err != nil {
		g.logError(ctx, "material_orders.generation.failed", err)
		return nil, err
	}

	runOutcome = metrics.OutcomeCreated
	g.deps.Metrics.AddOrders(len(result.Orders))
	for _, u := range result.Unresolved {
		g.deps.Metrics.IncUnresolved(u.Item.Category.String())
	}

	out := &Outcome{
		JobID:      job.ID,
		RunID:      run.ID,
		Created:    true,
		Orders:     result.Orders,
		Unresolved: result.Unresolved,
		Errors:     result.Errors,
		Summary:    result.Summary,
	}
	g.logComplete(ctx, out, g.now().Sub(start))
	return out, nil
}

func (g *Gate) loadJob(ctx context.Context, jobID uuid.UUID) (*models.InstallationJob, error) {
	job, err := g.deps.Jobs.FindByID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(ErrMissingJobOrSpec.Code(), ErrMissingJobOrSpec.Message()).
			WithDetails(map[string]any{"jobId": jobID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load installation job")
	}
	return job, nil
}

// existing returns the outcome of an earlier run, nil when the job has no
// orders yet. A finished run that produced no orders does not count, so the
// job can be generated again once the catalog covers it.
func (g *Gate) existing(ctx context.Context, jobID uuid.UUID) (*Outcome, error) {
	found, err := g.deps.Orders.ListByJob(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material orders")
	}
	run, err := g.deps.Runs.FindByJob(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load generation run")
	}
	if len(found) == 0 && (run == nil || run.Status != enums.GenerationRunStatusGenerating) {
		return nil, nil
	}
	out := &Outcome{JobID: jobID, Orders: found}
	if run != nil {
		out.RunID = run.ID
		if err := decodeRunResults(run, out); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode generation run")
		}
	}
	out.Summary = orders.Summarize(found, len(out.Unresolved), len(out.Errors))
	return out, nil
}

func decodeRunResults(run *models.MaterialGenerationRun, out *Outcome) error {
	if len(run.Unresolved) > 0 {
		if err := json.Unmarshal(run.Unresolved, &out.Unresolved); err != nil {
			return fmt.Errorf("unresolved items: %w", err)
		}
	}
	if len(run.Errors) > 0 {
		if err := json.Unmarshal(run.Errors, &out.Errors); err != nil {
			return fmt.Errorf("generation errors: %w", err)
		}
	}
	return nil
}

func (g *Gate) selectItems(ctx context.Context, items []materials.MaterialItem) ([]orders.SelectedItem, error) {
	selected := make([]orders.SelectedItem, 0, len(items))
	for _, item := range items {
		offers, err := g.deps.Catalog.OffersForItem(ctx, item)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read supplier catalog").
				WithDetails(map[string]any{"item": item.Description()})
		}
		productID := uuid.Nil
		if item.ProductID != nil {
			productID = *item.ProductID
		}
		res, err := selection.Select(productID, offers, g.cfg.Strategy)
		switch {
		case err == nil:
			selected = append(selected, orders.SelectedItem{Item: item, Selection: &res})
		case orders.IsUnresolved(err):
			selected = append(selected, orders.SelectedItem{Item: item, Err: err})
		default:
			return nil, err
		}
	}
	return selected, nil
}

func (g *Gate) release(ctx context.Context, lock Lock) {
	if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
		g.logError(ctx, "material_orders.lock.release_failed", err)
	}
}

func runPersistenceError(step string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, orders.ErrPersistence.Message()).
		WithDetails(map[string]any{"step": step})
}

func (g *Gate) withJob(ctx context.Context, jobID uuid.UUID) context.Context {
	if g.deps.Logger == nil {
		return ctx
	}
	return g.deps.Logger.WithJobID(ctx, jobID.String())
}

func (g *Gate) info(ctx context.Context, msg string, fields map[string]any) {
	if g.deps.Logger == nil {
		return
	}
	g.deps.Logger.Info(g.deps.Logger.WithFields(ctx, fields), msg)
}

func (g *Gate) logError(ctx context.Context, msg string, err error) {
	if g.deps.Logger == nil {
		return
	}
	g.deps.Logger.Error(ctx, msg, err)
}

func (g *Gate) logComplete(ctx context.Context, out *Outcome, elapsed time.Duration) {
	if g.deps.Logger == nil {
		return
	}
	fields := map[string]any{
		"order_count":      out.Summary.TotalOrders,
		"total_cost":       out.Summary.TotalCost.StringFixed(2),
		"unresolved_count": out.Summary.UnresolvedCount,
		"error_count":      out.Summary.ErrorCount,
		"duration_ms":      elapsed.Milliseconds(),
	}
	if err := out.Err(); err != nil {
		fields["errors"] = err.Error()
		g.deps.Logger.Warn(g.deps.Logger.WithFields(ctx, fields), "material_orders.generation.complete")
		return
	}
	g.deps.Logger.Info(g.deps.Logger.WithFields(ctx, fields), "material_orders.generation.complete")
}
