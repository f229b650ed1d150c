package memplan_test

import (
	"encoding/json"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/tensorarena/memplan"
	"github.com/tensorarena/memplan/plan"
)

func TestOutcomeStatistics(t *testing.T) {
	g, info, _ := testGraph()
	planner := memplan.NewPlanner(nil)

	outcome, err := planner.Plan(g, testRegistry(), info, plan.StrategyGreedyBySize, memplan.PlanOptions{})
	require.NoError(t, err)

	stats := outcome.Statistics()
	require.Equal(t, 3, stats.AllocationCount)
	require.Equal(t, int64(384), stats.AllocationBytes)
	require.Equal(t, int64(320), stats.ArenaBytes)
	require.Equal(t, int64(64), stats.AllocationSizeMin)
	require.Equal(t, int64(256), stats.AllocationSizeMax)
	require.Zero(t, stats.UnusedRangeCount)
}

func TestOutcomeBuildStatsString(t *testing.T) {
	g, info, _ := testGraph()
	planner := memplan.NewPlanner(nil)

	outcome, err := planner.Plan(g, testRegistry(), info, plan.StrategyGreedyBySize, memplan.PlanOptions{})
	require.NoError(t, err)

	writer := jwriter.NewWriter()
	outcome.BuildStatsString(&writer)
	require.NoError(t, writer.Error())

	var decoded struct {
		Strategy    string
		Device      string
		TotalBytes  int64
		Allocations int
		Regions     []struct {
			Begin, End, Offset, Size int64
		}
	}
	require.NoError(t, json.Unmarshal(writer.Bytes(), &decoded))
	require.Equal(t, "GREEDY_BY_SIZE", decoded.Strategy)
	require.Equal(t, "CPU", decoded.Device)
	require.Equal(t, int64(320), decoded.TotalBytes)
	require.Equal(t, 3, decoded.Allocations)
	require.Len(t, decoded.Regions, 3)
}

func TestOutcomeRegionLookup(t *testing.T) {
	g, info, _ := testGraph()
	planner := memplan.NewPlanner(nil)

	outcome, err := planner.Plan(g, testRegistry(), info, plan.StrategyNaive, memplan.PlanOptions{})
	require.NoError(t, err)

	region, ok := outcome.Region(plan.LiveRange{Begin: 0, End: 2})
	require.True(t, ok)
	require.Equal(t, int64(64), region.Size)

	_, ok = outcome.Region(plan.LiveRange{Begin: 90, End: 99})
	require.False(t, ok)
}

func TestStrategyNames(t *testing.T) {
	for _, name := range []string{
		"NAIVE",
		"LINEAR_SCAN",
		"GREEDY_BY_SIZE",
		"GREEDY_BY_SIZE_WITH_FIRST_GAP",
		"GREEDY_BY_LONGEST_AND_SIZE",
		"GREEDY_BY_BREADTH",
	} {
		strategy, err := plan.ParseStrategy(name)
		require.NoError(t, err)
		require.Equal(t, name, strategy.String())
	}

	_, err := plan.ParseStrategy("FANCY")
	require.Error(t, err)
	require.Equal(t, "UNKNOWN_STRATEGY", plan.Strategy(42).String())
}
