package plan

import (
	"sort"

	"github.com/tensorarena/memplan/memutils"
)

// NodeItems groups the managed output values of one out-variant operator with the
// operator's position in the linear schedule.
type NodeItems struct {
	Time  int64
	Items []Item
}

// GreedyByBreadth seats the participants of the most congested moments first. Each
// node's breadth is the sum of aligned sizes of every managed value live at the node's
// scheduled time; nodes are processed in breadth order and their outputs placed largest
// first, each in the first adequate hole.
func GreedyByBreadth(nodes []NodeItems) []MemAllocation {
	items := make([]Item, 0, len(nodes))
	seen := make(map[int]bool)
	for _, node := range nodes {
		for _, item := range node.Items {
			if seen[item.Index] {
				continue
			}
			seen[item.Index] = true
			items = append(items, item)
		}
	}

	breadths := make([]int64, len(nodes))
	for i, node := range nodes {
		var breadth int64
		for _, item := range items {
			if item.Range.Contains(node.Time) {
				breadth += item.alignedSize()
			}
		}
		breadths[i] = breadth
	}

	// A node's first item index completes the sort key: two nodes can share both
	// breadth and schedule time, and the packing must not depend on input order.
	minIndex := make([]int, len(nodes))
	for i, node := range nodes {
		minIndex[i] = int(^uint(0) >> 1)
		for _, item := range node.Items {
			if item.Index < minIndex[i] {
				minIndex[i] = item.Index
			}
		}
	}

	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if breadths[order[i]] != breadths[order[j]] {
			return breadths[order[i]] > breadths[order[j]]
		}
		if nodes[order[i]].Time != nodes[order[j]].Time {
			return nodes[order[i]].Time < nodes[order[j]].Time
		}
		return minIndex[order[i]] < minIndex[order[j]]
	})

	allocations := make([]MemAllocation, 0, len(items))
	placed := make(map[int]bool)
	for _, nodeIndex := range order {
		outputs := append([]Item(nil), nodes[nodeIndex].Items...)
		sort.SliceStable(outputs, func(i, j int) bool {
			return itemLargerFirst(outputs[i], outputs[j])
		})

		for _, item := range outputs {
			// An output already placed took part in an earlier, wider node.
			if placed[item.Index] {
				continue
			}
			placed[item.Index] = true

			alignedSize := item.alignedSize()
			forbidden := conflictRegions(allocations, item.Range)
			allocations = append(allocations, MemAllocation{
				Range:  item.Range,
				Region: MemRegion{Offset: findOffset(forbidden, alignedSize, gapFirst), Size: alignedSize},
			})
		}
	}

	memutils.DebugValidate(AllocationList(allocations))
	return allocations
}
