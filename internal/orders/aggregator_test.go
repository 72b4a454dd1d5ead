package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/activity"
	"github.com/angelmondragon/solarpo-backend/internal/jobs"
	"github.com/angelmondragon/solarpo-backend/internal/ponumber"
	"github.com/angelmondragon/solarpo-backend/internal/testutil"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
)

var runDay = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type aggregatorEnv struct {
	client *db.Client
	conn   *gorm.DB
	agg    *Aggregator
	job    models.InstallationJob
}

func newAggregatorEnv(t *testing.T, override func(*AggregatorDeps)) aggregatorEnv {
	t.Helper()
	client, conn := testutil.NewClient(t)
	deps := AggregatorDeps{
		Tx:       client,
		Repo:     NewRepository(conn),
		PO:       ponumber.NewService(conn, time.UTC),
		Jobs:     jobs.NewRepository(conn),
		Activity: activity.NewRepository(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
	}
	if override != nil {
		override(&deps)
	}
	agg, err := NewAggregator(deps, AggregatorConfig{GSTRate: gst, OrderedStatus: enums.JobStatusMaterialsOrdered})
	require.NoError(t, err)
	agg.now = func() time.Time { return runDay }

	job := testutil.SeedJob(t, conn, models.InstallationJob{
		SystemSizeKw:  testutil.Dec("6.6"),
		PanelCount:    16,
		InverterModel: "Primo 6.0",
	})
	return aggregatorEnv{client: client, conn: conn, agg: agg, job: job}
}

func allResolved() []SelectedItem {
	return []SelectedItem{
		resolved(item(enums.MaterialCategoryPanel, "PV Module", "Tiger Neo 440W", 16), supplierA, "SupplierA", "120.00"),
		resolved(item(enums.MaterialCategoryInverter, "Solar Inverter", "Primo 6.0", 1), supplierB, "SupplierB", "1500.00"),
		resolved(item(enums.MaterialCategoryMounting, "Roof Rails", "Aluminum Rail", 6), supplierA, "SupplierA", "40.00"),
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestAggregatePersistsOrdersPerSupplier(t *testing.T) {
	env := newAggregatorEnv(t, nil)
	ctx := context.Background()

	res, err := env.agg.Aggregate(ctx, env.job.ID, allResolved())
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Unresolved)

	assert.Equal(t, "PO-20261016-001", res.Orders[0].PONumber)
	assert.Equal(t, supplierA, res.Orders[0].SupplierID)
	assert.Equal(t, "PO-20261016-002", res.Orders[1].PONumber)
	assert.Equal(t, supplierB, res.Orders[1].SupplierID)

	stored, err := NewRepository(env.conn).ListByJob(ctx, env.job.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Len(t, stored[0].Items, 2)
	assert.Equal(t, 0, stored[0].Items[0].Position)
	assert.True(t, stored[0].Subtotal.Equal(testutil.Dec("2160")))
	assert.True(t, stored[0].Tax.Equal(testutil.Dec("216")))
	assert.True(t, stored[0].Total.Equal(testutil.Dec("2376")))
	assert.Equal(t, enums.MaterialOrderStatusDraft, stored[0].Status)

	job, err := jobs.NewRepository(env.conn).FindByID(ctx, env.job.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.JobStatusMaterialsOrdered, job.Status)

	assert.EqualValues(t, 1, countRows(t, env.conn, &models.ActivityLog{}))
	assert.EqualValues(t, 1, countRows(t, env.conn, &models.OutboxEvent{}))

	assert.Equal(t, 2, res.Summary.TotalOrders)
	assert.True(t, res.Summary.TotalCost.Equal(testutil.Dec("4026")), res.Summary.TotalCost.String())
	require.Len(t, res.Summary.Suppliers, 2)
	assert.Equal(t, 2, res.Summary.Suppliers[0].ItemCount)
}

func TestAggregateItemErrorsKeepJobStatus(t *testing.T) {
	env := newAggregatorEnv(t, nil)
	ctx := context.Background()

	res, err := env.agg.Aggregate(ctx, env.job.ID, mixedRun())
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	require.Len(t, res.Errors, 1)
	require.Len(t, res.Unresolved, 2)
	assert.Equal(t, 1, res.Summary.ErrorCount)
	assert.Equal(t, 2, res.Summary.UnresolvedCount)

	job, err := jobs.NewRepository(env.conn).FindByID(ctx, env.job.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.JobStatusReadyToSchedule, job.Status)

	assert.EqualValues(t, 3, countRows(t, env.conn, &models.MaterialOrderItem{}))
}

func TestAggregateAllUnresolvedCreatesNoOrders(t *testing.T) {
	env := newAggregatorEnv(t, nil)

	res, err := env.agg.Aggregate(context.Background(), env.job.ID, []SelectedItem{
		unresolvedLine(item(enums.MaterialCategoryProtection, "Cable Glands", "PG16 Glands", 10)),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Len(t, res.Unresolved, 1)
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.MaterialOrder{}))
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.OutboxEvent{}))
	assert.EqualValues(t, 1, countRows(t, env.conn, &models.ActivityLog{}))
}

func TestAggregateRetriesPONumberCollision(t *testing.T) {
	env := newAggregatorEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.conn.Create(&models.POSequence{Scope: "20261016", LastValue: 0, UpdatedAt: runDay}).Error)
	require.NoError(t, env.conn.Create(&models.MaterialOrder{
		PONumber:     "PO-20261016-001",
		JobID:        uuid.New(),
		SupplierID:   uuid.New(),
		SupplierName: "Legacy",
		Status:       enums.MaterialOrderStatusSent,
		Strategy:     enums.StrategyLowestCost,
	}).Error)

	res, err := env.agg.Aggregate(ctx, env.job.ID, allResolved()[:1])
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "PO-20261016-002", res.Orders[0].PONumber)

	var seq models.POSequence
	require.NoError(t, env.conn.Where("scope = ?", "20261016").First(&seq).Error)
	assert.EqualValues(t, 2, seq.LastValue)
	assert.EqualValues(t, 1, countRows(t, env.conn, &models.MaterialOrderItem{}))
}

type failingJobs struct{}

func (failingJobs) UpdateStatus(context.Context, *gorm.DB, uuid.UUID, enums.JobStatus) error {
	return errors.New("status write failed")
}

func TestAggregateRollsBackOnPersistenceFailure(t *testing.T) {
	env := newAggregatorEnv(t, func(d *AggregatorDeps) { d.Jobs = failingJobs{} })

	_, err := env.agg.Aggregate(context.Background(), env.job.ID, allResolved())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))

	assert.EqualValues(t, 0, countRows(t, env.conn, &models.MaterialOrder{}))
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.MaterialOrderItem{}))
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.POSequence{}))
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.OutboxEvent{}))
	assert.EqualValues(t, 0, countRows(t, env.conn, &models.ActivityLog{}))
}

func TestPersistRequiresTransaction(t *testing.T) {
	env := newAggregatorEnv(t, nil)
	_, err := env.agg.Persist(context.Background(), nil, env.job.ID, allResolved())
	require.Error(t, err)
}

func TestNewAggregatorValidatesDeps(t *testing.T) {
	_, err := NewAggregator(AggregatorDeps{}, AggregatorConfig{GSTRate: gst})
	require.Error(t, err)

	env := newAggregatorEnv(t, nil)
	_, err = NewAggregator(env.agg.deps, AggregatorConfig{GSTRate: testutil.Dec("-0.1")})
	require.Error(t, err)
}
