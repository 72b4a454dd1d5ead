package ponumber

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/testutil"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

var day = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func TestNextPONumberSequentialWithinDay(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(conn, time.UTC)
	ctx := context.Background()

	first, err := svc.NextPONumber(ctx, day)
	require.NoError(t, err)
	second, err := svc.NextPONumber(ctx, day.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "PO-20261016-001", first)
	assert.Equal(t, "PO-20261016-002", second)
}

func TestNextPONumberResetsPerDay(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(conn, time.UTC)
	ctx := context.Background()

	_, err := svc.NextPONumber(ctx, day)
	require.NoError(t, err)
	_, err = svc.NextPONumber(ctx, day)
	require.NoError(t, err)

	next, err := svc.NextPONumber(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "PO-20261017-001", next)
}

func TestNextPONumberUsesBusinessTimeZone(t *testing.T) {
	conn := testutil.NewDB(t)
	sydney := time.FixedZone("AEDT", 11*60*60)
	svc := NewService(conn, sydney)

	late := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	got, err := svc.NextPONumber(context.Background(), late)
	require.NoError(t, err)
	assert.Equal(t, "PO-20261017-001", got)
}

func TestNextPONumberSeedsFromExistingOrders(t *testing.T) {
	conn := testutil.NewDB(t)
	for _, po := range []string{"PO-20261016-001", "PO-20261016-002", "PO-20261015-009"} {
		order := models.MaterialOrder{
			PONumber:     po,
			JobID:        uuid.New(),
			SupplierID:   uuid.New(),
			SupplierName: "Legacy",
			Status:       enums.MaterialOrderStatusDraft,
			Strategy:     enums.StrategyBalanced,
			Subtotal:     decimal.Zero,
			Tax:          decimal.Zero,
			Total:        decimal.Zero,
		}
		require.NoError(t, conn.Create(&order).Error)
	}

	got, err := NewService(conn, time.UTC).NextPONumber(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "PO-20261016-003", got)
}

func TestNextPONumberTxRollbackReleasesNumber(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(conn, time.UTC)
	ctx := context.Background()

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		po, err := svc.NextPONumberTx(ctx, tx, day)
		require.NoError(t, err)
		assert.Equal(t, "PO-20261016-001", po)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := svc.NextPONumber(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "PO-20261016-001", got)
}

func TestNextPONumberConcurrentCallersGetDistinctNumbers(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(conn, time.UTC)
	ctx := context.Background()

	const n = 25
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		got  []string
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			po, err := svc.NextPONumber(ctx, day)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			got = append(got, po)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, got, n)
	sort.Strings(got)
	for i, po := range got {
		assert.Equal(t, Format("20261016", int64(i+1)), po)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		seq  int64
		want string
	}{
		{1, "PO-20261016-001"},
		{42, "PO-20261016-042"},
		{999, "PO-20261016-999"},
		{1000, "PO-20261016-1000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format("20261016", tc.seq))
	}

	// four-digit sequences break string order
	assert.Less(t, Format("20261016", 1000), Format("20261016", 999))
}

func TestParse(t *testing.T) {
	day, seq, err := Parse("PO-20261016-1000")
	require.NoError(t, err)
	assert.Equal(t, "20261016", day)
	assert.Equal(t, int64(1000), seq)

	for _, bad := range []string{"", "PO-20261016", "XX-20261016-001", "PO-2026101-001", "PO-20261016-abc", "PO-20261016-000"} {
		_, _, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestLess(t *testing.T) {
	assert.True(t, Less("PO-20261016-999", "PO-20261016-1000"))
	assert.False(t, Less("PO-20261016-1000", "PO-20261016-999"))
	assert.True(t, Less("PO-20261016-002", "PO-20261016-010"))
	assert.True(t, Less("PO-20261015-1000", "PO-20261016-001"))
	assert.False(t, Less("PO-20261016-001", "PO-20261016-001"))
	assert.True(t, Less("PO-bad", "PO-ok"))
}

func TestNextPONumberTxRequiresHandle(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.NextPONumberTx(context.Background(), nil, day)
	require.Error(t, err)
}
