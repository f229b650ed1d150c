package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tensorarena/memplan/plan"
)

func TestGreedyByBreadthSeatsCongestedNodeFirst(t *testing.T) {
	// One node at time 5 produces three large values; its neighbours produce small
	// ones with disjoint lifetimes. The congested node's outputs take the low offsets
	// and the small values fill in underneath them.
	nodes := []plan.NodeItems{
		{Time: 1, Items: []plan.Item{{Range: rng(1, 4), Size: 8, Index: 0}}},
		{Time: 5, Items: []plan.Item{
			{Range: rng(5, 9), Size: 64, Index: 1},
			{Range: rng(5, 9), Size: 64, Index: 2},
			{Range: rng(5, 9), Size: 64, Index: 3},
		}},
		{Time: 10, Items: []plan.Item{{Range: rng(10, 12), Size: 8, Index: 4}}},
	}

	allocations := plan.GreedyByBreadth(nodes)
	require.NoError(t, plan.ValidateAllocations(allocations))
	require.Equal(t, int64(192), plan.TotalAllocationSize(allocations))

	offsets := make(map[int64]bool)
	for _, alloc := range allocations {
		if alloc.Range == rng(5, 9) {
			offsets[alloc.Region.Offset] = true
		} else {
			require.Equal(t, int64(0), alloc.Region.Offset)
		}
	}
	require.Equal(t, map[int64]bool{0: true, 64: true, 128: true}, offsets)
}

func TestGreedyByBreadthSkipsAlreadyPlacedItems(t *testing.T) {
	shared := plan.Item{Range: rng(0, 6), Size: 128, Index: 0}
	nodes := []plan.NodeItems{
		{Time: 0, Items: []plan.Item{shared, {Range: rng(0, 3), Size: 64, Index: 1}}},
		{Time: 4, Items: []plan.Item{shared, {Range: rng(4, 6), Size: 64, Index: 2}}},
	}

	allocations := plan.GreedyByBreadth(nodes)
	require.Len(t, allocations, 3)
	require.NoError(t, plan.ValidateAllocations(allocations))
}
