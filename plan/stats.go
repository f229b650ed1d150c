package plan

import (
	"sort"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/tensorarena/memplan/memutils"
)

// AddDetailedStatistics sums the allocation set's packing statistics into the provided
// accumulator. Unused ranges are the holes left on the offset axis once every region is
// projected onto it; because regions time-share offsets, the projection is taken over the
// union of regions.
func AddDetailedStatistics(allocations []MemAllocation, stats *memutils.DetailedStatistics) {
	stats.ArenaBytes += TotalAllocationSize(allocations)

	regions := make([]MemRegion, 0, len(allocations))
	for _, alloc := range allocations {
		stats.AddAllocation(alloc.Region.Size)
		regions = append(regions, alloc.Region)
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Offset != regions[j].Offset {
			return regions[i].Offset < regions[j].Offset
		}
		return regions[i].Size < regions[j].Size
	})

	var coveredEnd int64
	for _, region := range regions {
		if region.Offset > coveredEnd {
			stats.AddUnusedRange(region.Offset - coveredEnd)
		}
		if end := region.End(); end > coveredEnd {
			coveredEnd = end
		}
	}
}

// AllocationsJsonData populates a json array with one range/region object per
// allocation, in the order the heuristic produced them.
func AllocationsJsonData(json jwriter.ArrayState, allocations []MemAllocation) {
	for _, alloc := range allocations {
		obj := json.Object()
		obj.Name("Begin").Int(int(alloc.Range.Begin))
		obj.Name("End").Int(int(alloc.Range.End))
		obj.Name("Offset").Int(int(alloc.Region.Offset))
		obj.Name("Size").Int(int(alloc.Region.Size))
		obj.End()
	}
}

// WriteAllocations writes the allocation set as a top-level JSON array.
func WriteAllocations(writer *jwriter.Writer, allocations []MemAllocation) {
	arrayState := writer.Array()
	defer arrayState.End()

	AllocationsJsonData(arrayState, allocations)
}
