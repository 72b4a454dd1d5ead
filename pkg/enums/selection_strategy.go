package enums

import (
	"fmt"
	"strings"
)

// SelectionStrategy chooses how competing supplier offers are ranked.
type SelectionStrategy string

const (
	StrategyLowestCost        SelectionStrategy = "LOWEST_COST"
	StrategyHighestCommission SelectionStrategy = "HIGHEST_COMMISSION"
	StrategyBalanced          SelectionStrategy = "BALANCED"
	StrategyPrimaryFirst      SelectionStrategy = "PRIMARY_FIRST"
	StrategyFastest           SelectionStrategy = "FASTEST"
)

var validSelectionStrategies = []SelectionStrategy{
	StrategyLowestCost,
	StrategyHighestCommission,
	StrategyBalanced,
	StrategyPrimaryFirst,
	StrategyFastest,
}

// String implements fmt.Stringer.
func (s SelectionStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SelectionStrategy.
func (s SelectionStrategy) IsValid() bool {
	return oneOf(s, validSelectionStrategies)
}

// ParseSelectionStrategy converts raw input into a SelectionStrategy. Matching
// ignores case and surrounding whitespace.
func ParseSelectionStrategy(value string) (SelectionStrategy, error) {
	strategy, err := parse("selection strategy", strings.ToUpper(strings.TrimSpace(value)), validSelectionStrategies)
	if err != nil {
		return "", fmt.Errorf("invalid selection strategy %q", value)
	}
	return strategy, nil
}
