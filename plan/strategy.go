package plan

import "github.com/cockroachdb/errors"

// Strategy selects the packing heuristic used to map live ranges into arena regions.
type Strategy uint32

const (
	// StrategyNaive packs items back to back with no storage reuse.
	StrategyNaive Strategy = iota
	// StrategyLinearScan reuses storage with a register-allocation-style scan over a
	// free list of gaps.
	StrategyLinearScan
	// StrategyGreedyBySize seats the largest items first, each in the tightest hole
	// available among the offsets its live range permits.
	StrategyGreedyBySize
	// StrategyGreedyBySizeWithFirstGap seats the largest items first, each in the first
	// adequate hole in offset order.
	StrategyGreedyBySizeWithFirstGap
	// StrategyGreedyByLongestAndSize seats the longest-lived items first, breaking ties
	// by size, placing each in the first adequate hole.
	StrategyGreedyByLongestAndSize
	// StrategyGreedyByBreadth seats the output values of the most congested operators
	// first, placing each in the first adequate hole.
	StrategyGreedyByBreadth
)

var strategyMapping = map[Strategy]string{
	StrategyNaive:                    "NAIVE",
	StrategyLinearScan:               "LINEAR_SCAN",
	StrategyGreedyBySize:             "GREEDY_BY_SIZE",
	StrategyGreedyBySizeWithFirstGap: "GREEDY_BY_SIZE_WITH_FIRST_GAP",
	StrategyGreedyByLongestAndSize:   "GREEDY_BY_LONGEST_AND_SIZE",
	StrategyGreedyByBreadth:          "GREEDY_BY_BREADTH",
}

func (s Strategy) String() string {
	name, ok := strategyMapping[s]
	if !ok {
		return "UNKNOWN_STRATEGY"
	}
	return name
}

// ParseStrategy maps a stable strategy name, as used in logs and on the command line,
// back to its Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	for strategy, strategyName := range strategyMapping {
		if strategyName == name {
			return strategy, nil
		}
	}
	return 0, errors.Newf("unknown strategy %q", name)
}
