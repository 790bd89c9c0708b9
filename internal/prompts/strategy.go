package prompts

import (
	"fmt"
	"strings"
)

// Strategy selects how per-unit prompts are derived from the base prompt.
type Strategy string

const (
	// StrategySequential appends a fixed continuation clause per unit.
	StrategySequential Strategy = "sequential"
	// StrategyHierarchical derives units from a named musical structure.
	StrategyHierarchical Strategy = "hierarchical"
	// StrategyAISequential asks the creative service for scene variations.
	StrategyAISequential Strategy = "ai-sequential"
	// StrategyAIHierarchical combines a structure with creative scenes.
	StrategyAIHierarchical Strategy = "ai-hierarchical"
)

var allStrategies = []Strategy{
	StrategySequential,
	StrategyHierarchical,
	StrategyAISequential,
	StrategyAIHierarchical,
}

// ParseStrategy converts a string into a known Strategy.
func ParseStrategy(value string) (Strategy, error) {
	normalized := Strategy(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStrategies {
		if normalized == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (available: %s)", value, strategyList())
}

// Strategies returns the ordered list of known strategies.
func Strategies() []Strategy {
	cp := make([]Strategy, len(allStrategies))
	copy(cp, allStrategies)
	return cp
}

// UsesStructure reports whether the strategy derives its unit count from a
// named structure instead of a caller-specified count.
func (s Strategy) UsesStructure() bool {
	return s == StrategyHierarchical || s == StrategyAIHierarchical
}

// UsesCreativeService reports whether the strategy consults the creative
// text service.
func (s Strategy) UsesCreativeService() bool {
	return s == StrategyAISequential || s == StrategyAIHierarchical
}

func strategyList() string {
	names := make([]string, len(allStrategies))
	for i, s := range allStrategies {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
