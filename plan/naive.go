package plan

import "sort"

// Naive packs items back to back in schedule order with no storage reuse: the arena is
// exactly the sum of all aligned sizes. It is the upper-bound witness the validator
// tests are calibrated against.
func Naive(items []Item) []MemAllocation {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return itemLess(sorted[i], sorted[j])
	})

	allocations := make([]MemAllocation, 0, len(sorted))
	var offset int64
	for _, item := range sorted {
		alignedSize := item.alignedSize()
		allocations = append(allocations, MemAllocation{
			Range:  item.Range,
			Region: MemRegion{Offset: offset, Size: alignedSize},
		})
		offset += alignedSize
	}
	return allocations
}
