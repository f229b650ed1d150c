package plan

import (
	"sort"

	"github.com/tensorarena/memplan/memutils"
)

// gapFreeList hands out offsets for the linear scan. Returned regions are kept sorted by
// offset and coalesced with their neighbours so a burst of frees re-forms one large hole.
type gapFreeList struct {
	gaps []MemRegion
	top  int64
}

func (l *gapFreeList) allocate(size int64) int64 {
	for i, gap := range l.gaps {
		if gap.Size < size {
			continue
		}
		offset := gap.Offset
		if gap.Size == size {
			l.gaps = append(l.gaps[:i], l.gaps[i+1:]...)
		} else {
			l.gaps[i].Offset += size
			l.gaps[i].Size -= size
		}
		return offset
	}

	offset := l.top
	l.top += size
	return offset
}

func (l *gapFreeList) free(region MemRegion) {
	at := sort.Search(len(l.gaps), func(i int) bool {
		return l.gaps[i].Offset >= region.Offset
	})

	l.gaps = append(l.gaps, MemRegion{})
	copy(l.gaps[at+1:], l.gaps[at:])
	l.gaps[at] = region

	// Coalesce with the following gap, then the preceding one.
	if at+1 < len(l.gaps) && l.gaps[at].End() == l.gaps[at+1].Offset {
		l.gaps[at].Size += l.gaps[at+1].Size
		l.gaps = append(l.gaps[:at+1], l.gaps[at+2:]...)
	}
	if at > 0 && l.gaps[at-1].End() == l.gaps[at].Offset {
		l.gaps[at-1].Size += l.gaps[at].Size
		l.gaps = append(l.gaps[:at], l.gaps[at+1:]...)
	}
}

// LinearScan is the classical register-allocation-style scan: items are processed in
// schedule order, items whose range ended before the current item's begin release their
// regions back to a free list, and each new item takes the first adequate gap.
func LinearScan(items []Item) []MemAllocation {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return itemLess(sorted[i], sorted[j])
	})

	var freeList gapFreeList
	active := make([]MemAllocation, 0, len(sorted))
	allocations := make([]MemAllocation, 0, len(sorted))

	for _, item := range sorted {
		// Expire everything that died strictly before this item begins.
		live := active[:0]
		for _, alloc := range active {
			if alloc.Range.End < item.Range.Begin {
				freeList.free(alloc.Region)
				continue
			}
			live = append(live, alloc)
		}
		active = live

		alloc := MemAllocation{
			Range:  item.Range,
			Region: MemRegion{Offset: freeList.allocate(item.alignedSize()), Size: item.alignedSize()},
		}
		active = append(active, alloc)
		allocations = append(allocations, alloc)
	}

	memutils.DebugValidate(AllocationList(allocations))
	return allocations
}
