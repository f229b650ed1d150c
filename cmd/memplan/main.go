package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/tensorarena/memplan"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/plan"
	"golang.org/x/exp/slog"
)

var (
	traceFile    string
	strategyName string
	jsonOutput   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "memplan",
		Short:         "Pack recorded tensor lifetimes into a single arena",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan arena storage from a recorded allocator trace",
		RunE:  runPlan,
	}
	planCmd.Flags().StringVar(&traceFile, "trace", "", "path to the recorded trace (JSON)")
	planCmd.Flags().StringVar(&strategyName, "strategy", plan.StrategyLinearScan.String(), "packing strategy")
	planCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the full plan dump as JSON")
	_ = planCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(planCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "memplan: %+v\n", err)
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	strategy, err := plan.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(traceFile)
	if err != nil {
		return errors.Wrapf(err, "reading trace %s", traceFile)
	}

	events, err := decodeEvents(data)
	if err != nil {
		return errors.Wrapf(err, "decoding trace %s", traceFile)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr))
	planner := memplan.NewPlanner(logger)

	outcome, err := planner.PlanWithTrace(graph.NewGraph(), strategy, events, memplan.PlanOptions{})
	if err != nil {
		return err
	}

	if jsonOutput {
		writer := jwriter.NewWriter()
		outcome.BuildStatsString(&writer)
		os.Stdout.Write(writer.Bytes())
		fmt.Println()
		return nil
	}

	allocations := append([]plan.MemAllocation(nil), outcome.Allocations...)
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Range.Begin != allocations[j].Range.Begin {
			return allocations[i].Range.Begin < allocations[j].Range.Begin
		}
		return allocations[i].Range.End < allocations[j].Range.End
	})
	for _, alloc := range allocations {
		fmt.Println(alloc)
	}
	fmt.Printf("arena: %s (%d bytes), strategy: %s\n",
		humanize.IBytes(uint64(outcome.TotalSize)), outcome.TotalSize, outcome.Strategy)
	return nil
}

// decodeEvents parses a JSON array of recorded allocator events:
//
//	[{"Time": 1, "Key": "0x7f3a", "Size": 64, "Kind": "Allocate",
//	  "PC": 3, "Schema": "aten::mm", "Header": "%3 : Tensor = aten::mm(...)"}, ...]
//
// Free events need only Time, Key, Size, and Kind. Allocate events that carry none of PC,
// Schema, and Header are treated as pre-interpreter allocations (no frame).
func decodeEvents(data []byte) ([]memplan.MemEvent, error) {
	reader := jreader.NewReader(data)

	var events []memplan.MemEvent
	for arr := reader.Array(); arr.Next(); {
		var event memplan.MemEvent
		var frame memplan.FrameNodeID
		hasFrame := false

		for obj := reader.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "Time":
				event.Time = int64(reader.Int())
			case "Key":
				event.Key = reader.String()
			case "Size":
				event.Size = int64(reader.Int())
			case "Kind":
				kind := reader.String()
				switch kind {
				case "Allocate":
					event.Kind = memplan.EventAllocate
				case "Free":
					event.Kind = memplan.EventFree
				default:
					return nil, errors.Newf("unknown event kind %q", kind)
				}
			case "PC":
				frame.PC = int64(reader.Int())
				hasFrame = true
			case "Schema":
				frame.Schema = reader.String()
				hasFrame = true
			case "Header":
				frame.Header = reader.String()
				hasFrame = true
			default:
				reader.SkipValue()
			}
		}

		if hasFrame && event.Kind == memplan.EventAllocate {
			event.Frame = &frame
		}
		events = append(events, event)
	}

	if err := reader.Error(); err != nil {
		return nil, err
	}
	return events, nil
}
