package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/testutil"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

func newJob(t *testing.T, conn *gorm.DB, status enums.JobStatus) models.InstallationJob {
	t.Helper()
	return testutil.SeedJob(t, conn, models.InstallationJob{
		Status:             status,
		SystemSizeKw:       testutil.Dec("6.6"),
		PanelCount:         16,
		InverterModel:      "Primo 6.0",
		SelectedComponents: testutil.StandardComponents(uuid.New(), uuid.New(), uuid.New()),
	})
}

func TestFindByIDRoundTripsComponents(t *testing.T) {
	conn := testutil.NewDB(t)
	job := newJob(t, conn, enums.JobStatusReadyToSchedule)

	got, err := NewRepository(conn).FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.JobNumber, got.JobNumber)
	assert.True(t, got.SystemSizeKw.Equal(testutil.Dec("6.6")))
	require.NotNil(t, got.SelectedComponents.Panel)
	assert.Equal(t, job.SelectedComponents.Panel.ProductID, got.SelectedComponents.Panel.ProductID)
	require.NotNil(t, got.SelectedComponents.Battery)
	assert.True(t, got.SelectedComponents.Battery.CapacityKwh.Equal(testutil.Dec("13.5")))
}

func TestFindByIDMissing(t *testing.T) {
	conn := testutil.NewDB(t)
	_, err := NewRepository(conn).FindByID(context.Background(), uuid.New())
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateStatus(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)
	job := newJob(t, conn, enums.JobStatusReadyToSchedule)
	ctx := context.Background()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.UpdateStatus(ctx, tx, job.ID, enums.JobStatusMaterialsOrdered)
	}))

	got, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.JobStatusMaterialsOrdered, got.Status)

	err = repo.UpdateStatus(ctx, nil, uuid.New(), enums.JobStatusMaterialsOrdered)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListReadyWithoutOrders(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)

	ready := newJob(t, conn, enums.JobStatusReadyToSchedule)
	newJob(t, conn, enums.JobStatusPendingSchedule)
	ordered := newJob(t, conn, enums.JobStatusReadyToSchedule)
	retryable := newJob(t, conn, enums.JobStatusReadyToSchedule)

	require.NoError(t, conn.Create(&models.MaterialOrder{
		PONumber:     "PO-20261016-001",
		JobID:        ordered.ID,
		SupplierID:   uuid.New(),
		SupplierName: "SupplierA",
		Status:       enums.MaterialOrderStatusDraft,
		Strategy:     enums.StrategyBalanced,
	}).Error)
	require.NoError(t, conn.Create(&models.MaterialGenerationRun{
		JobID:       retryable.ID,
		Status:      enums.GenerationRunStatusDoneWithErrors,
		Strategy:    enums.StrategyBalanced,
		TriggeredBy: "test",
		StartedAt:   time.Now().UTC(),
	}).Error)

	rows, err := repo.ListReadyWithoutOrders(context.Background(), enums.JobStatusReadyToSchedule, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.ElementsMatch(t, []uuid.UUID{ready.ID, retryable.ID}, []uuid.UUID{rows[0].ID, rows[1].ID})
}
