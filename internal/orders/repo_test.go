package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/solarpo-backend/internal/testutil"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

func TestListByJobOrdersPONumbersNumerically(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)
	jobID := uuid.New()

	for _, po := range []string{"PO-20261016-1000", "PO-20261016-999", "PO-20261016-1001"} {
		require.NoError(t, conn.Create(&models.MaterialOrder{
			PONumber:     po,
			JobID:        jobID,
			SupplierID:   uuid.New(),
			SupplierName: "SupplierA",
			Status:       enums.MaterialOrderStatusDraft,
			Strategy:     enums.StrategyBalanced,
		}).Error)
	}

	rows, err := repo.ListByJob(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "PO-20261016-999", rows[0].PONumber)
	assert.Equal(t, "PO-20261016-1000", rows[1].PONumber)
	assert.Equal(t, "PO-20261016-1001", rows[2].PONumber)
}
