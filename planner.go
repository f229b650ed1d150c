// Package memplan plans arena storage for tensor computation graphs ahead of time: it
// extracts the live ranges of every value the graph can redirect into external storage,
// packs those lifetimes into offsets of one contiguous buffer, and hands the resulting
// plan to a graph rewriter. The graph then executes without touching the general
// allocator for its intermediates.
package memplan

import (
	"github.com/cockroachdb/errors"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/plan"
	"golang.org/x/exp/slog"
)

// Planner runs the liveness and packing passes. It never mutates the graph; mutation is
// the Rewriter's job and happens strictly after planning returns.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a Planner that logs through the provided logger. A nil logger falls
// back to slog.Default.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger}
}

// PlanOptions carries the per-plan knobs of the surrounding compiler.
type PlanOptions struct {
	// Device is where the arena storage node will be allocated. The zero value is CPU,
	// matching the device-selection fallback of the surrounding compiler.
	Device graph.Device
}

// rangeEntry pairs a packing item with the value that owns its live range. When two
// distinct values report the identical range, the later one wins the record.
type rangeEntry struct {
	item  plan.Item
	value *graph.Value
}

// Plan extracts managed values from the graph, packs them with the selected strategy,
// validates the packing, and returns the plan. An unrecognized strategy yields an empty
// plan: the rewriter sees zero managed tensors and the graph stays unchanged.
func (p *Planner) Plan(
	g *graph.Graph,
	registry graph.Registry,
	info AliasInfo,
	strategy plan.Strategy,
	opts PlanOptions,
) (*PlanOutcome, error) {
	outNodes, managed, leaked, err := p.collectManagedValues(g, registry, info)
	if err != nil {
		return nil, err
	}

	indexByRange := make(map[plan.LiveRange]int, len(managed))
	entries := make([]rangeEntry, 0, len(managed))
	for _, mv := range managed {
		if at, ok := indexByRange[mv.rng]; ok {
			p.logger.Warn("overlapping live ranges",
				slog.String("value", mv.value.Name()),
				slog.String("with", entries[at].value.Name()))
			entries[at].value = mv.value
			entries[at].item.Size = mv.size
			continue
		}
		indexByRange[mv.rng] = len(entries)
		entries = append(entries, rangeEntry{
			item:  plan.Item{Range: mv.rng, Size: mv.size, Index: len(entries)},
			value: mv.value,
		})
	}

	items := make([]plan.Item, len(entries))
	for i, entry := range entries {
		items[i] = entry.item
	}

	var allocations []plan.MemAllocation
	switch strategy {
	case plan.StrategyNaive:
		allocations = plan.Naive(items)
	case plan.StrategyLinearScan:
		allocations = plan.LinearScan(items)
	case plan.StrategyGreedyBySize:
		allocations = plan.GreedyBySize(items)
	case plan.StrategyGreedyBySizeWithFirstGap:
		allocations = plan.GreedyBySizeWithFirstGap(items)
	case plan.StrategyGreedyByLongestAndSize:
		allocations = plan.GreedyByLongestAndSize(items)
	case plan.StrategyGreedyByBreadth:
		allocations = plan.GreedyByBreadth(nodeItems(outNodes, entries))
	default:
		p.logger.Warn("unknown strategy, leaving the graph unchanged",
			slog.String("strategy", strategy.String()))
		return &PlanOutcome{Strategy: strategy, Device: opts.Device, Leaked: leaked}, nil
	}

	if err := plan.ValidateAllocations(allocations); err != nil {
		return nil, errors.Wrapf(err, "strategy %s produced an invalid plan", strategy)
	}

	outcome := newOutcome(strategy, opts.Device, allocations)
	outcome.Leaked = leaked
	outcome.attachManagedValues(entries)

	p.logger.Debug("planned arena",
		slog.String("strategy", strategy.String()),
		slog.Int("managed", len(entries)),
		slog.Int("leaked", len(leaked)),
		slog.Int64("totalSize", outcome.TotalSize))
	return outcome, nil
}

// nodeItems groups each out-variant node's surviving managed outputs for the breadth
// heuristic.
func nodeItems(outNodes []*graph.Node, entries []rangeEntry) []plan.NodeItems {
	nodes := make([]plan.NodeItems, 0, len(outNodes))
	for _, node := range outNodes {
		group := plan.NodeItems{Time: node.Time()}
		for _, entry := range entries {
			if entry.value.Node() == node {
				group.Items = append(group.Items, entry.item)
			}
		}
		if len(group.Items) > 0 {
			nodes = append(nodes, group)
		}
	}
	return nodes
}
