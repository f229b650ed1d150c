package plan

import (
	"sort"

	"github.com/tensorarena/memplan/memutils"
)

func greedy(items []Item, less func(a, b Item) bool, priority gapPriority) []MemAllocation {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	allocations := make([]MemAllocation, 0, len(sorted))
	for _, item := range sorted {
		alignedSize := item.alignedSize()
		forbidden := conflictRegions(allocations, item.Range)
		allocations = append(allocations, MemAllocation{
			Range:  item.Range,
			Region: MemRegion{Offset: findOffset(forbidden, alignedSize, priority), Size: alignedSize},
		})
	}

	memutils.DebugValidate(AllocationList(allocations))
	return allocations
}

// GreedyBySize seats the largest items first. Each item sees the regions of
// already-placed items whose live ranges conflict with its own as forbidden intervals on
// the offset axis and takes the tightest hole among them.
func GreedyBySize(items []Item) []MemAllocation {
	return greedy(items, itemLargerFirst, gapSmallest)
}

// GreedyBySizeWithFirstGap is GreedyBySize with the placement taking the first hole
// large enough in offset order instead of the tightest one. It explores interior reuse
// more aggressively at the cost of worse upper-offset locality.
func GreedyBySizeWithFirstGap(items []Item) []MemAllocation {
	return greedy(items, itemLargerFirst, gapFirst)
}

// GreedyByLongestAndSize seats the longest-lived items first, breaking ties by size.
// Long-lived items fragment the arena the most, so they get first pick of offsets.
func GreedyByLongestAndSize(items []Item) []MemAllocation {
	return greedy(items, itemLongerFirst, gapFirst)
}
