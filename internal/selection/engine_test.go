package selection

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

var productID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")

func supplierID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func days(n int) *int { return &n }

func offer(n int, cost, commission string, ctype enums.CommissionType) Offer {
	return Offer{
		OfferID:           uuid.New(),
		SupplierID:        supplierID(n),
		SupplierName:      fmt.Sprintf("Supplier %d", n),
		ProductID:         productID,
		SupplierProductID: supplierID(100 + n),
		UnitCost:          decimal.RequireFromString(cost),
		CommissionAmount:  decimal.RequireFromString(commission),
		CommissionType:    ctype,
		IsActive:          true,
	}
}

func cfg(strategy enums.SelectionStrategy) StrategyConfig {
	return StrategyConfig{Strategy: strategy, CommissionWeight: decimal.RequireFromString("0.5")}
}

func TestSelectLowestCostPicksMinimumNetCost(t *testing.T) {
	offers := []Offer{
		offer(1, "120", "10", enums.CommissionTypeFixed),      // net 110
		offer(2, "115", "0", enums.CommissionTypeFixed),       // net 115
		offer(3, "130", "20", enums.CommissionTypePercentage), // net 104
	}

	res, err := Select(productID, offers, cfg(enums.StrategyLowestCost))
	require.NoError(t, err)
	assert.Equal(t, supplierID(3), res.Selected.SupplierID)
	assert.True(t, res.Selected.Commission.Equal(decimal.NewFromInt(26)))
	assert.True(t, res.Selected.NetCost.Equal(decimal.NewFromInt(104)))
	assert.True(t, res.Selected.NetProfit.Equal(res.Selected.Commission))

	require.Len(t, res.Alternatives, 2)
	for _, alt := range res.Alternatives {
		assert.True(t, res.Selected.NetCost.LessThanOrEqual(alt.NetCost))
	}
	assert.Equal(t, supplierID(1), res.Alternatives[0].SupplierID)
	assert.Contains(t, res.Reason, "lowest net cost")
}

func TestSelectHighestCommission(t *testing.T) {
	offers := []Offer{
		offer(1, "200", "10", enums.CommissionTypePercentage), // 20
		offer(2, "150", "25", enums.CommissionTypeFixed),      // 25
		offer(3, "100", "5", enums.CommissionTypeFixed),
	}
	res, err := Select(productID, offers, cfg(enums.StrategyHighestCommission))
	require.NoError(t, err)
	assert.Equal(t, supplierID(2), res.Selected.SupplierID)
	assert.True(t, res.Selected.Score.Equal(decimal.NewFromInt(25)))
}

func TestSelectBalancedScore(t *testing.T) {
	// score = 0.5*profit + 0.5*(1000/netCost)
	// s1: profit 10, net 90  -> 5 + 5.555556 = 10.555556
	// s2: profit 30, net 170 -> 15 + 2.941176 = 17.941176
	offers := []Offer{
		offer(1, "100", "10", enums.CommissionTypeFixed),
		offer(2, "200", "30", enums.CommissionTypeFixed),
	}
	res, err := Select(productID, offers, cfg(enums.StrategyBalanced))
	require.NoError(t, err)
	assert.Equal(t, supplierID(2), res.Selected.SupplierID)
	assert.Equal(t, "17.941176", res.Selected.Score.String())
	assert.Equal(t, "10.555556", res.Alternatives[0].Score.String())

	costOnly := cfg(enums.StrategyBalanced)
	costOnly.CommissionWeight = decimal.Zero
	res, err = Select(productID, offers, costOnly)
	require.NoError(t, err)
	assert.Equal(t, supplierID(1), res.Selected.SupplierID, "weight 0 ranks purely on cost")
}

func TestSelectBalancedFloorsNetCost(t *testing.T) {
	free := offer(1, "10", "10", enums.CommissionTypeFixed) // net cost 0
	res, err := Select(productID, []Offer{free, offer(2, "100", "0", enums.CommissionTypeFixed)}, cfg(enums.StrategyBalanced))
	require.NoError(t, err)
	assert.Equal(t, supplierID(1), res.Selected.SupplierID)
	// 0.5*10 + 0.5*(1000/0.01)
	assert.True(t, res.Selected.Score.Equal(decimal.NewFromInt(50005)))
}

func TestSelectPrimaryFirstAlwaysPicksPrimary(t *testing.T) {
	primary := offer(9, "500", "0", enums.CommissionTypeFixed)
	primary.IsPrimary = true
	offers := []Offer{
		offer(1, "100", "50", enums.CommissionTypeFixed),
		primary,
		offer(2, "90", "40", enums.CommissionTypeFixed),
	}

	res, err := Select(productID, offers, cfg(enums.StrategyPrimaryFirst))
	require.NoError(t, err)
	assert.Equal(t, supplierID(9), res.Selected.SupplierID)
	assert.Contains(t, res.Reason, "primary supplier")
	assert.Equal(t, supplierID(1), res.Alternatives[0].SupplierID)
}

func TestSelectPrimaryFirstFallsBackToHighestCommission(t *testing.T) {
	offers := []Offer{
		offer(1, "100", "10", enums.CommissionTypeFixed),
		offer(2, "100", "12", enums.CommissionTypeFixed),
	}
	res, err := Select(productID, offers, cfg(enums.StrategyPrimaryFirst))
	require.NoError(t, err)
	assert.Equal(t, supplierID(2), res.Selected.SupplierID)
	assert.Contains(t, res.Reason, "no primary supplier")
}

func TestSelectFastest(t *testing.T) {
	unknown := offer(1, "100", "0", enums.CommissionTypeFixed)
	slow := offer(2, "90", "0", enums.CommissionTypeFixed)
	slow.LeadTimeDays = days(10)
	quick := offer(3, "110", "0", enums.CommissionTypeFixed)
	quick.LeadTimeDays = days(2)

	res, err := Select(productID, []Offer{unknown, slow, quick}, cfg(enums.StrategyFastest))
	require.NoError(t, err)
	assert.Equal(t, supplierID(3), res.Selected.SupplierID)
	require.Len(t, res.Alternatives, 2)
	assert.Equal(t, supplierID(2), res.Alternatives[0].SupplierID)
	assert.Equal(t, supplierID(1), res.Alternatives[1].SupplierID, "unset lead time ranks last")
}

func TestSelectTieBreak(t *testing.T) {
	a := offer(7, "100", "0", enums.CommissionTypeFixed)
	b := offer(3, "100", "0", enums.CommissionTypeFixed)
	res, err := Select(productID, []Offer{a, b}, cfg(enums.StrategyLowestCost))
	require.NoError(t, err)
	assert.Equal(t, supplierID(3), res.Selected.SupplierID, "lowest supplier id wins a tie")

	a.IsPrimary = true
	res, err = Select(productID, []Offer{b, a}, cfg(enums.StrategyLowestCost))
	require.NoError(t, err)
	assert.Equal(t, supplierID(7), res.Selected.SupplierID, "primary wins a tie before supplier id")
}

func TestSelectFiltersInactiveAndLeadTime(t *testing.T) {
	inactive := offer(1, "10", "0", enums.CommissionTypeFixed)
	inactive.IsActive = false
	slow := offer(2, "50", "0", enums.CommissionTypeFixed)
	slow.LeadTimeDays = days(30)
	unset := offer(3, "80", "0", enums.CommissionTypeFixed)

	c := cfg(enums.StrategyLowestCost)
	c.MaxLeadTimeDays = days(14)

	res, err := Select(productID, []Offer{inactive, slow, unset}, c)
	require.NoError(t, err)
	assert.Equal(t, supplierID(3), res.Selected.SupplierID)
	assert.Empty(t, res.Alternatives)
	assert.Contains(t, res.Reason, "only eligible offer")
}

func TestSelectErrors(t *testing.T) {
	inactive := offer(1, "10", "0", enums.CommissionTypeFixed)
	inactive.IsActive = false

	_, err := Select(productID, nil, cfg(enums.StrategyBalanced))
	require.ErrorIs(t, err, ErrNoSupplierFound)

	_, err = Select(productID, []Offer{inactive}, cfg(enums.StrategyBalanced))
	require.ErrorIs(t, err, ErrNoSupplierFound)
	assert.Equal(t, pkgerrors.CodeUnresolved, pkgerrors.CodeOf(err))

	slow := offer(2, "50", "0", enums.CommissionTypeFixed)
	slow.LeadTimeDays = days(30)
	c := cfg(enums.StrategyBalanced)
	c.MaxLeadTimeDays = days(7)
	_, err = Select(productID, []Offer{slow}, c)
	require.ErrorIs(t, err, ErrNoEligibleOffer)
	assert.False(t, errors.Is(err, ErrNoSupplierFound))
}

func TestSelectIsIdempotent(t *testing.T) {
	offers := []Offer{
		offer(4, "310.50", "7.5", enums.CommissionTypePercentage),
		offer(2, "299.99", "20", enums.CommissionTypeFixed),
		offer(6, "305", "22", enums.CommissionTypeFixed),
	}
	for _, strategy := range []enums.SelectionStrategy{
		enums.StrategyLowestCost, enums.StrategyHighestCommission, enums.StrategyBalanced,
		enums.StrategyPrimaryFirst, enums.StrategyFastest,
	} {
		first, err := Select(productID, offers, cfg(strategy))
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Select(productID, offers, cfg(strategy))
			require.NoError(t, err)
			assert.Equal(t, first.Selected.SupplierID, again.Selected.SupplierID, strategy)
			assert.True(t, first.Selected.Score.Equal(again.Selected.Score), strategy)
		}
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	offers := []Offer{
		offer(2, "100", "0", enums.CommissionTypeFixed),
		offer(1, "50", "0", enums.CommissionTypeFixed),
	}
	_, err := Select(productID, offers, cfg(enums.StrategyLowestCost))
	require.NoError(t, err)
	assert.Equal(t, supplierID(2), offers[0].SupplierID)
}

func TestStrategyConfigValidation(t *testing.T) {
	bad := cfg(enums.StrategyBalanced)
	bad.CommissionWeight = decimal.RequireFromString("1.2")
	require.Error(t, bad.Validate())

	bad = cfg("CHEAPEST")
	require.Error(t, bad.Validate())

	bad = cfg(enums.StrategyBalanced)
	bad.MaxLeadTimeDays = days(-1)
	require.Error(t, bad.Validate())

	_, err := Select(productID, []Offer{offer(1, "1", "0", enums.CommissionTypeFixed)}, StrategyConfig{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestFromConfig(t *testing.T) {
	out, err := FromConfig(config.ProcurementConfig{
		Strategy:         "primary_first",
		CommissionWeight: decimal.RequireFromString("0.3"),
		MaxLeadTimeDays:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.StrategyPrimaryFirst, out.Strategy)
	require.NotNil(t, out.MaxLeadTimeDays)
	assert.Equal(t, 10, *out.MaxLeadTimeDays)

	out, err = FromConfig(config.ProcurementConfig{Strategy: "BALANCED", CommissionWeight: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	assert.Nil(t, out.MaxLeadTimeDays)

	_, err = FromConfig(config.ProcurementConfig{Strategy: "RANDOM"})
	require.Error(t, err)
}
