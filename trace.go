package memplan

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/plan"
	"golang.org/x/exp/slog"
)

// EventKind distinguishes the two sides of a recorded allocator event.
type EventKind uint32

const (
	EventAllocate EventKind = iota
	EventFree
)

var eventKindMapping = map[EventKind]string{
	EventAllocate: "Allocate",
	EventFree:     "Free",
}

func (k EventKind) String() string {
	return eventKindMapping[k]
}

// FrameNodeID identifies the graph node responsible for an allocation event recorded
// during a profiling run.
type FrameNodeID struct {
	PC     int64
	Schema string
	Header string
	Node   *graph.Node
}

// MemEvent is one entry of the chronological trace recorded by the instrumenting
// allocator wrapper. Frame is nil for allocations made before the interpreter started
// (weights and inputs); those must carry time zero.
type MemEvent struct {
	Time  int64
	Key   string
	Size  int64
	Kind  EventKind
	Frame *FrameNodeID
}

type rangeFrame struct {
	rng   plan.LiveRange
	frame FrameNodeID
}

// traceLiveRanges replays the event stream and derives one live range per
// allocate/free pair. A broken trace aborts with an error: callers should disable
// planning rather than pack from bad data.
func (p *Planner) traceLiveRanges(events []MemEvent, g *graph.Graph) ([]plan.Item, []rangeFrame, error) {
	open := swiss.NewMap[string, MemEvent](uint32(len(events)))
	seenRange := make(map[plan.LiveRange]bool, len(events)/2)
	var items []plan.Item
	var frames []rangeFrame

	for _, event := range events {
		switch event.Kind {
		case EventAllocate:
			if event.Frame == nil {
				// Allocated before the interpreter started, e.g. inputs and weights.
				if event.Time != 0 {
					return nil, nil, errors.Newf("allocation at time %d carries no frame node id", event.Time)
				}
				continue
			}
			if _, exists := open.Get(event.Key); exists {
				return nil, nil, errors.Newf("pointer key %s allocated twice without an intervening free", event.Key)
			}
			open.Put(event.Key, event)

		case EventFree:
			alloc, ok := open.Get(event.Key)
			if !ok {
				return nil, nil, errors.Newf("free at time %d has no matching allocation for pointer key %s", event.Time, event.Key)
			}
			if alloc.Size != event.Size {
				return nil, nil, errors.Newf("free size %d for pointer key %s does not match allocation size %d", event.Size, event.Key, alloc.Size)
			}
			if alloc.Time >= event.Time {
				return nil, nil, errors.Newf("free at time %d does not strictly follow its allocation at time %d", event.Time, alloc.Time)
			}

			rng := plan.LiveRange{Begin: alloc.Time, End: event.Time}
			if seenRange[rng] {
				p.logger.Warn("trace produced a duplicate live range",
					slog.String("range", rng.String()), slog.String("key", event.Key))
			} else {
				seenRange[rng] = true
				items = append(items, plan.Item{Range: rng, Size: alloc.Size, Index: len(items)})
			}
			frames = append(frames, rangeFrame{rng: rng, frame: *alloc.Frame})
			open.Delete(event.Key)

		default:
			return nil, nil, errors.Newf("unknown event kind %d at time %d", event.Kind, event.Time)
		}
	}

	var residual []MemEvent
	open.Iter(func(key string, event MemEvent) bool {
		residual = append(residual, event)
		return false
	})
	sort.Slice(residual, func(i, j int) bool {
		if residual[i].Time != residual[j].Time {
			return residual[i].Time < residual[j].Time
		}
		return residual[i].Key < residual[j].Key
	})

	// Unpaired allocations are tolerated only when everything the responsible node
	// produces leaves the graph: genuine outputs leak out of the plan.
	for _, event := range residual {
		node := event.Frame.Node
		if node == nil {
			return nil, nil, errors.Newf("unfreed allocation for pointer key %s has no responsible node", event.Key)
		}
		for _, out := range node.Outputs() {
			if !g.IsOutput(out) {
				return nil, nil, errors.Newf("unfreed allocation for pointer key %s was produced by node %s whose output %s is not a graph output",
					event.Key, event.Frame.Header, out.Name())
			}
		}
		p.logger.Debug("leaked trace allocation", slog.String("key", event.Key), slog.Int64("size", event.Size))
	}

	return items, frames, nil
}

// collectNodeLiveRanges groups the recorded ranges by responsible node, ordering the
// groups by frame and each group's ranges by schedule position.
func collectNodeLiveRanges(frames []rangeFrame) []NodeRanges {
	grouped := make(map[FrameNodeID][]plan.LiveRange)
	var order []FrameNodeID
	for _, frame := range frames {
		if _, ok := grouped[frame.frame]; !ok {
			order = append(order, frame.frame)
		}
		grouped[frame.frame] = append(grouped[frame.frame], frame.rng)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].PC != order[j].PC {
			return order[i].PC < order[j].PC
		}
		if order[i].Header != order[j].Header {
			return order[i].Header < order[j].Header
		}
		return order[i].Schema < order[j].Schema
	})

	collected := make([]NodeRanges, 0, len(order))
	for _, frame := range order {
		ranges := grouped[frame]
		sort.Slice(ranges, func(i, j int) bool {
			if ranges[i].Begin != ranges[j].Begin {
				return ranges[i].Begin < ranges[j].Begin
			}
			return ranges[i].End < ranges[j].End
		})
		collected = append(collected, NodeRanges{Frame: frame, Ranges: ranges})
	}
	return collected
}

// PlanWithTrace packs live ranges recorded by a profiling run instead of ranges derived
// from static liveness. Only the strategies that need no out-node information are
// supported; the others are flagged to the caller.
func (p *Planner) PlanWithTrace(
	g *graph.Graph,
	strategy plan.Strategy,
	events []MemEvent,
	opts PlanOptions,
) (*PlanOutcome, error) {
	if len(events) == 0 {
		return nil, errors.New("cannot plan from an empty trace")
	}

	items, frames, err := p.traceLiveRanges(events, g)
	if err != nil {
		return nil, err
	}

	var allocations []plan.MemAllocation
	switch strategy {
	case plan.StrategyNaive:
		allocations = plan.Naive(items)
	case plan.StrategyLinearScan:
		allocations = plan.LinearScan(items)
	case plan.StrategyGreedyBySize:
		allocations = plan.GreedyBySize(items)
	case plan.StrategyGreedyBySizeWithFirstGap,
		plan.StrategyGreedyByLongestAndSize,
		plan.StrategyGreedyByBreadth:
		return nil, errors.Newf("strategy %s needs out-node information a trace cannot supply", strategy)
	default:
		p.logger.Warn("unknown strategy, leaving the graph unchanged",
			slog.String("strategy", strategy.String()))
		return &PlanOutcome{Strategy: strategy, Device: opts.Device}, nil
	}

	if err := plan.ValidateAllocations(allocations); err != nil {
		return nil, errors.Wrapf(err, "strategy %s produced an invalid plan", strategy)
	}

	outcome := newOutcome(strategy, opts.Device, allocations)
	outcome.NodeRanges = collectNodeLiveRanges(frames)

	p.logger.Debug("planned arena from trace",
		slog.String("strategy", strategy.String()),
		slog.Int("ranges", len(items)),
		slog.Int64("totalSize", outcome.TotalSize))
	return outcome, nil
}
