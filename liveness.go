package memplan

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/tensorarena/memplan/graph"
	"github.com/tensorarena/memplan/plan"
	"golang.org/x/exp/slog"
)

// AliasInfo is the planner's view of the surrounding compiler's alias and liveness
// analyses. The planner never walks uses and defs itself; it only consults this oracle.
type AliasInfo interface {
	// IsAlwaysAlive reports whether the value's storage must never be reused: graph
	// inputs and outputs, weights, and externally aliased storage.
	IsAlwaysAlive(value *graph.Value) bool
	// LiveRange returns the value's live range in schedule time. Every managed value
	// must have one; a missing range for a managed value is a contract violation.
	LiveRange(value *graph.Value) (plan.LiveRange, bool)
}

// LivenessMap is a ready-made AliasInfo for callers that have both analyses precomputed.
type LivenessMap struct {
	AlwaysAlive map[*graph.Value]bool
	Ranges      map[*graph.Value]plan.LiveRange
}

func (m LivenessMap) IsAlwaysAlive(value *graph.Value) bool {
	return m.AlwaysAlive[value]
}

func (m LivenessMap) LiveRange(value *graph.Value) (plan.LiveRange, bool) {
	rng, ok := m.Ranges[value]
	return rng, ok
}

// managedValue is one value selected for arena placement, in collection order.
type managedValue struct {
	value *graph.Value
	size  int64
	rng   plan.LiveRange
}

// hasOutVariant reports whether any schema registered for the node's kind takes an "out"
// tensor argument. Only such nodes can be redirected into planner-supplied storage
// without deep IR surgery.
func hasOutVariant(node *graph.Node, registry graph.Registry) bool {
	for _, schema := range registry.SchemasFor(node.Kind()) {
		if schema.HasArgument("out") {
			return true
		}
	}
	return false
}

// isOptimizableContainer reports whether the node produces a list or tuple whose elements
// are themselves outputs of out-variant operators. Such containers flow through unmanaged
// while their members are managed independently.
func isOptimizableContainer(node *graph.Node, outVariant *swiss.Map[*graph.Node, bool]) bool {
	if node.Kind() != graph.KindListConstruct && node.Kind() != graph.KindTupleConstruct {
		return false
	}
	for _, input := range node.Inputs() {
		producer := input.Node()
		if producer == nil {
			return false
		}
		if hasOut, ok := outVariant.Get(producer); !ok || !hasOut {
			return false
		}
	}
	return true
}

func (p *Planner) computeStorageSize(value *graph.Value) (int64, bool) {
	typ := value.Type()
	if typ == nil {
		p.logger.Warn("output isn't a tensor type", slog.String("value", value.Name()))
		return 0, false
	}
	if !typ.KnownScalar {
		p.logger.Warn("this output was profiled but didn't have a scalar type",
			slog.String("value", value.Name()))
		return 0, false
	}
	if typ.Sizes == nil {
		p.logger.Warn("this output was profiled but doesn't have sizes",
			slog.String("value", value.Name()))
		return 0, false
	}
	size, ok := typ.StorageSize()
	return size, ok
}

// collectManagedValues walks the schedule and picks every sizable output of an
// out-variant node that the alias analysis does not pin. Unsizable values leak to the
// default allocator; a managed value without a live range aborts planning.
func (p *Planner) collectManagedValues(
	g *graph.Graph,
	registry graph.Registry,
	info AliasInfo,
) ([]*graph.Node, []managedValue, []*graph.Value, error) {
	outVariant := swiss.NewMap[*graph.Node, bool](uint32(len(g.Nodes())))
	for _, node := range g.Nodes() {
		outVariant.Put(node, hasOutVariant(node, registry))
	}

	var outNodes []*graph.Node
	var managed []managedValue
	var leaked []*graph.Value

	for _, node := range g.Nodes() {
		if hasOut, _ := outVariant.Get(node); !hasOut {
			continue
		}
		outNodes = append(outNodes, node)

		for _, value := range node.Outputs() {
			if info.IsAlwaysAlive(value) {
				continue
			}

			size, ok := p.computeStorageSize(value)
			if ok && size > 0 {
				rng, ok := info.LiveRange(value)
				if !ok {
					return nil, nil, nil, errors.Newf("managed value %s has no live range", value.Name())
				}
				managed = append(managed, managedValue{value: value, size: size, rng: rng})
				continue
			}

			if isOptimizableContainer(node, outVariant) {
				leaked = append(leaked, value)
				continue
			}

			p.logger.Warn("not handling unsupported value", slog.String("value", value.Name()))
			leaked = append(leaked, value)
		}
	}

	return outNodes, managed, leaked, nil
}
