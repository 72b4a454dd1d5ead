package selection

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solarpo-backend/pkg/errors"
)

var (
	// ErrNoSupplierFound means no active offer exists for the product.
	ErrNoSupplierFound = pkgerrors.New(pkgerrors.CodeUnresolved, "no active supplier offer")
	// ErrNoEligibleOffer means active offers exist but all exceed the lead-time ceiling.
	ErrNoEligibleOffer = pkgerrors.New(pkgerrors.CodeUnresolved, "no supplier offer within lead time ceiling")
)

var (
	// balancedK scales the cost term of the BALANCED score so that it is
	// comparable to commission amounts in dollars.
	balancedK    = decimal.NewFromInt(1000)
	minNetCost   = decimal.RequireFromString("0.01")
	hundred      = decimal.NewFromInt(100)
	one          = decimal.NewFromInt(1)
	moneyPlaces  = int32(2)
	scorePlaces  = int32(6)
	noLeadTime   = decimal.NewFromInt(-1)
	noLeadTimeSz = "unknown"
)

// Select ranks the offers for productID under cfg and returns the winner plus
// the remaining eligible offers in rank order. It is a pure function.
func Select(productID uuid.UUID, offers []Offer, cfg StrategyConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	active := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.IsActive {
			active = append(active, o)
		}
	}
	if len(active) == 0 {
		return Result{}, fmt.Errorf("product %s: %w", productID, ErrNoSupplierFound)
	}

	eligible := make([]ScoredOffer, 0, len(active))
	for _, o := range active {
		if cfg.MaxLeadTimeDays != nil && o.LeadTimeDays != nil && *o.LeadTimeDays > *cfg.MaxLeadTimeDays {
			continue
		}
		eligible = append(eligible, score(o, cfg))
	}
	if len(eligible) == 0 {
		return Result{}, fmt.Errorf("product %s (max %d days): %w", productID, *cfg.MaxLeadTimeDays, ErrNoEligibleOffer)
	}

	hasPrimary := false
	for _, o := range eligible {
		if o.IsPrimary {
			hasPrimary = true
			break
		}
	}

	less := rankFunc(cfg.Strategy)
	sort.SliceStable(eligible, func(i, j int) bool {
		return less(eligible[i], eligible[j])
	})

	return Result{
		ProductID:    productID,
		Strategy:     cfg.Strategy,
		Selected:     eligible[0],
		Alternatives: eligible[1:],
		Reason:       reason(cfg.Strategy, eligible, hasPrimary),
	}, nil
}

// Commission returns the per-unit commission of an offer.
func Commission(o Offer) decimal.Decimal {
	if o.CommissionType == enums.CommissionTypePercentage {
		return o.UnitCost.Mul(o.CommissionAmount).Div(hundred).Round(moneyPlaces)
	}
	return o.CommissionAmount
}

func score(o Offer, cfg StrategyConfig) ScoredOffer {
	commission := Commission(o)
	s := ScoredOffer{
		Offer:      o,
		Commission: commission,
		NetCost:    o.UnitCost.Sub(commission),
		NetProfit:  commission,
	}

	switch cfg.Strategy {
	case enums.StrategyLowestCost:
		s.Score = s.NetCost
	case enums.StrategyBalanced:
		s.Score = balancedScore(s, cfg.CommissionWeight)
	case enums.StrategyFastest:
		if o.LeadTimeDays != nil {
			s.Score = decimal.NewFromInt(int64(*o.LeadTimeDays))
		} else {
			s.Score = noLeadTime
		}
	default:
		s.Score = s.NetProfit
	}
	return s
}

// balancedScore is w*netProfit + (1-w)*(K/netCost), netCost floored at 0.01.
func balancedScore(s ScoredOffer, weight decimal.Decimal) decimal.Decimal {
	netCost := decimal.Max(s.NetCost, minNetCost)
	profitTerm := weight.Mul(s.NetProfit)
	costTerm := one.Sub(weight).Mul(balancedK.Div(netCost))
	return profitTerm.Add(costTerm).Round(scorePlaces)
}

func rankFunc(strategy enums.SelectionStrategy) func(a, b ScoredOffer) bool {
	return func(a, b ScoredOffer) bool {
		if strategy == enums.StrategyPrimaryFirst && a.IsPrimary != b.IsPrimary {
			return a.IsPrimary
		}
		if c := compareMetric(strategy, a, b); c != 0 {
			return c < 0
		}
		return tieBreak(a, b)
	}
}

// compareMetric returns -1 when a ranks ahead of b on the strategy's metric.
func compareMetric(strategy enums.SelectionStrategy, a, b ScoredOffer) int {
	switch strategy {
	case enums.StrategyLowestCost:
		return a.NetCost.Cmp(b.NetCost)
	case enums.StrategyBalanced:
		return b.Score.Cmp(a.Score)
	case enums.StrategyFastest:
		switch {
		case a.LeadTimeDays == nil && b.LeadTimeDays == nil:
			return 0
		case a.LeadTimeDays == nil:
			return 1
		case b.LeadTimeDays == nil:
			return -1
		}
		return compareInt(*a.LeadTimeDays, *b.LeadTimeDays)
	default:
		return b.NetProfit.Cmp(a.NetProfit)
	}
}

// tieBreak prefers primary offers, then the lowest supplier id, then the
// lowest supplier product id.
func tieBreak(a, b ScoredOffer) bool {
	if a.IsPrimary != b.IsPrimary {
		return a.IsPrimary
	}
	if as, bs := a.SupplierID.String(), b.SupplierID.String(); as != bs {
		return as < bs
	}
	return a.SupplierProductID.String() < b.SupplierProductID.String()
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func reason(strategy enums.SelectionStrategy, ranked []ScoredOffer, hasPrimary bool) string {
	top := ranked[0]
	alts := len(ranked) - 1
	if alts == 0 {
		return fmt.Sprintf("%s: only eligible offer (%s at $%s)", strategy, top.SupplierName, top.UnitCost.StringFixed(moneyPlaces))
	}

	switch strategy {
	case enums.StrategyLowestCost:
		return fmt.Sprintf("%s: lowest net cost $%s among %d offers", strategy, top.NetCost.StringFixed(moneyPlaces), len(ranked))
	case enums.StrategyHighestCommission:
		return fmt.Sprintf("%s: highest commission $%s among %d offers", strategy, top.NetProfit.StringFixed(moneyPlaces), len(ranked))
	case enums.StrategyBalanced:
		return fmt.Sprintf("%s: best score %s (net cost $%s, commission $%s) among %d offers",
			strategy, top.Score.StringFixed(2), top.NetCost.StringFixed(moneyPlaces), top.NetProfit.StringFixed(moneyPlaces), len(ranked))
	case enums.StrategyPrimaryFirst:
		if hasPrimary {
			return fmt.Sprintf("%s: primary supplier %s", strategy, top.SupplierName)
		}
		return fmt.Sprintf("%s: no primary supplier, highest commission $%s among %d offers", strategy, top.NetProfit.StringFixed(moneyPlaces), len(ranked))
	case enums.StrategyFastest:
		lead := noLeadTimeSz
		if top.LeadTimeDays != nil {
			lead = fmt.Sprintf("%d days", *top.LeadTimeDays)
		}
		return fmt.Sprintf("%s: shortest lead time (%s) among %d offers", strategy, lead, len(ranked))
	}
	return string(strategy)
}
