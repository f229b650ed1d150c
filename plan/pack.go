package plan

import (
	"math"
	"sort"

	"github.com/tensorarena/memplan/memutils"
)

func alignSize(size int64) int64 {
	return memutils.AlignTensorSize(size)
}

// gapPriority controls which hole a greedy placement takes when several are large enough.
type gapPriority uint32

const (
	// gapSmallest takes the tightest adequate hole, preferring the lowest offset among
	// equally tight holes.
	gapSmallest gapPriority = iota
	// gapFirst takes the first adequate hole in offset order.
	gapFirst
)

// findOffset places a region of the given size on the offset axis, avoiding the forbidden
// regions. The forbidden slice is sorted and swept in offset order; when no interior hole
// is large enough the region goes just past the last forbidden byte.
func findOffset(forbidden []MemRegion, size int64, priority gapPriority) int64 {
	sort.Slice(forbidden, func(i, j int) bool {
		if forbidden[i].Offset != forbidden[j].Offset {
			return forbidden[i].Offset < forbidden[j].Offset
		}
		return forbidden[i].Size < forbidden[j].Size
	})

	var prevEnd int64
	bestOffset := int64(-1)
	bestGap := int64(math.MaxInt64)

	for _, region := range forbidden {
		if !memutils.ValidAdd(region.Offset, region.Size) {
			// A region this extreme poisons everything above it.
			return prevEnd
		}

		if region.Offset > prevEnd {
			gap := region.Offset - prevEnd
			if gap >= size {
				if priority == gapFirst {
					return prevEnd
				}
				if gap < bestGap {
					bestGap = gap
					bestOffset = prevEnd
				}
			}
		}

		if end := region.End(); end > prevEnd {
			prevEnd = end
		}
	}

	if bestOffset >= 0 {
		return bestOffset
	}
	return prevEnd
}

// conflictRegions gathers the regions of already-placed allocations whose live ranges
// conflict with the item being placed.
func conflictRegions(placed []MemAllocation, rng LiveRange) []MemRegion {
	var forbidden []MemRegion
	for _, alloc := range placed {
		if alloc.Range.ConflictsWith(rng) {
			forbidden = append(forbidden, alloc.Region)
		}
	}
	return forbidden
}
