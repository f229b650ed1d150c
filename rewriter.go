package memplan

import (
	"github.com/cockroachdb/errors"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/plan"
)

// StorageHandle identifies the arena storage node a Rewriter inserted at graph entry.
// Its representation belongs to the rewriter.
type StorageHandle any

// Rewriter is the contract the surrounding compiler implements to consume a plan. The
// planner itself never mutates the graph.
type Rewriter interface {
	// InsertStorageNode inserts the single arena allocation performed once at graph
	// entry and returns its handle.
	InsertStorageNode(totalSize int64, device graph.Device) (StorageHandle, error)

	// InsertAllocTensor binds one managed output to a sub-region of the arena. The
	// allocation node is inserted before the producing node, which gains the allocation
	// handle as an extra input so schema resolution picks its out-variant.
	InsertAllocTensor(
		storage StorageHandle,
		node *graph.Node,
		value *graph.Value,
		region plan.MemRegion,
		scalar graph.ScalarType,
		sizes []int64,
		strides []int64,
	) error

	// InsertPreAllocTensor reproduces a recorded allocation before the responsible
	// node. It carries no value identity.
	InsertPreAllocTensor(storage StorageHandle, node *graph.Node, region plan.MemRegion) error

	// CollectAllocatedTensors pins every inserted pre-allocation so later passes cannot
	// drop them. Called once, after the last InsertPreAllocTensor.
	CollectAllocatedTensors(storage StorageHandle) error
}

// Apply hands a finished plan to the rewriter. An empty plan is a no-op: the graph stays
// unchanged. Region bounds are re-checked against the arena size before every insertion.
func Apply(outcome *PlanOutcome, rewriter Rewriter) error {
	if len(outcome.Allocations) == 0 {
		return nil
	}

	storage, err := rewriter.InsertStorageNode(outcome.TotalSize, outcome.Device)
	if err != nil {
		return err
	}

	for _, managed := range outcome.Managed {
		if managed.Region.End() > outcome.TotalSize {
			return errors.Newf("allocation %s for value %s exceeds previously planned memory %d",
				managed.Region, managed.Value.Name(), outcome.TotalSize)
		}

		typ := managed.Value.Type()
		sizes, strides := typ.SizesStrides()
		err = rewriter.InsertAllocTensor(storage, managed.Value.Node(), managed.Value, managed.Region, typ.Scalar, sizes, strides)
		if err != nil {
			return err
		}
	}

	if len(outcome.NodeRanges) == 0 {
		return nil
	}

	for _, nodeRanges := range outcome.NodeRanges {
		for _, rng := range nodeRanges.Ranges {
			region, ok := outcome.Region(rng)
			if !ok {
				return errors.Newf("no region was packed for recorded live range %s", rng)
			}
			if region.End() > outcome.TotalSize {
				return errors.Newf("allocation %s for node %s exceeds previously planned memory %d",
					region, nodeRanges.Frame.Header, outcome.TotalSize)
			}
			if err := rewriter.InsertPreAllocTensor(storage, nodeRanges.Frame.Node, region); err != nil {
				return err
			}
		}
	}

	return rewriter.CollectAllocatedTensors(storage)
}
