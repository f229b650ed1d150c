package memplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/memutils"
	"github.com/tensorarena/memplan/plan"
)

// ManagedTensor binds one managed graph value to its live range and arena region.
type ManagedTensor struct {
	Value  *graph.Value
	Range  plan.LiveRange
	Region plan.MemRegion
}

// NodeRanges lists the recorded live ranges attributable to one node, for the trace
// path's pre-allocation rewriting.
type NodeRanges struct {
	Frame  FrameNodeID
	Ranges []plan.LiveRange
}

// PlanOutcome is the planner's result: the arena size, the packed allocation set, and
// the per-value (static path) or per-node (trace path) bindings the rewriter consumes.
type PlanOutcome struct {
	Strategy  plan.Strategy
	Device    graph.Device
	TotalSize int64

	Allocations []plan.MemAllocation

	// Managed is populated by the static path, ordered by live-range begin.
	Managed []ManagedTensor
	// NodeRanges is populated by the trace path.
	NodeRanges []NodeRanges
	// Leaked lists the values the planner declined to manage; they fall back to the
	// default allocator and the rewriter must tolerate the gap.
	Leaked []*graph.Value

	regionByRange map[plan.LiveRange]plan.MemRegion
}

func newOutcome(strategy plan.Strategy, device graph.Device, allocations []plan.MemAllocation) *PlanOutcome {
	regionByRange := make(map[plan.LiveRange]plan.MemRegion, len(allocations))
	for _, alloc := range allocations {
		if _, ok := regionByRange[alloc.Range]; !ok {
			regionByRange[alloc.Range] = alloc.Region
		}
	}
	return &PlanOutcome{
		Strategy:      strategy,
		Device:        device,
		TotalSize:     plan.TotalAllocationSize(allocations),
		Allocations:   allocations,
		regionByRange: regionByRange,
	}
}

// Region returns the arena region packed for the given live range.
func (o *PlanOutcome) Region(rng plan.LiveRange) (plan.MemRegion, bool) {
	region, ok := o.regionByRange[rng]
	return region, ok
}

func (o *PlanOutcome) attachManagedValues(entries []rangeEntry) {
	o.Managed = make([]ManagedTensor, 0, len(entries))
	for _, entry := range entries {
		region := o.regionByRange[entry.item.Range]
		o.Managed = append(o.Managed, ManagedTensor{
			Value:  entry.value,
			Range:  entry.item.Range,
			Region: region,
		})
	}
	sort.SliceStable(o.Managed, func(i, j int) bool {
		a, b := o.Managed[i], o.Managed[j]
		if a.Range.Begin != b.Range.Begin {
			return a.Range.Begin < b.Range.Begin
		}
		if a.Range.End != b.Range.End {
			return a.Range.End < b.Range.End
		}
		return a.Value.Name() < b.Value.Name()
	})
}

// DebugString renders the stable line-oriented plan dump used for regression diffs: one
// managed value per line, ordered by live-range begin.
func (o *PlanOutcome) DebugString() string {
	var builder strings.Builder
	for _, managed := range o.Managed {
		fmt.Fprintf(&builder, "%s: %s %s\n", managed.Value.Name(), managed.Range, managed.Region)
	}
	return builder.String()
}

// Statistics computes the packing statistics of the finished plan.
func (o *PlanOutcome) Statistics() memutils.DetailedStatistics {
	var stats memutils.DetailedStatistics
	stats.Clear()
	plan.AddDetailedStatistics(o.Allocations, &stats)
	return stats
}

// PlanJsonData populates a json object with the plan's headline numbers and its
// allocation set.
func (o *PlanOutcome) PlanJsonData(json jwriter.ObjectState) {
	json.Name("Strategy").String(o.Strategy.String())
	json.Name("Device").String(o.Device.String())
	json.Name("TotalBytes").Int(int(o.TotalSize))

	stats := o.Statistics()
	json.Name("Allocations").Int(stats.AllocationCount)
	json.Name("AllocationBytes").Int(int(stats.AllocationBytes))
	json.Name("UnusedRanges").Int(stats.UnusedRangeCount)

	arrayState := json.Name("Regions").Array()
	defer arrayState.End()
	plan.AllocationsJsonData(arrayState, o.Allocations)
}

// BuildStatsString writes the full plan dump through the provided json writer.
func (o *PlanOutcome) BuildStatsString(writer *jwriter.Writer) {
	objState := writer.Object()
	defer objState.End()

	o.PlanJsonData(objState)
}
