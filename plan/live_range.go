package plan

import (
	"fmt"

	"github.com/tensorarena/memplan/memutils"
)

// LiveRange is the closed interval of scheduled instruction time (or trace timestamps)
// during which one managed value must remain addressable. Begin <= End always holds for
// ranges produced by the liveness passes.
type LiveRange struct {
	Begin int64
	End   int64
}

// Length returns the extent of the range in schedule time.
func (r LiveRange) Length() int64 {
	return r.End - r.Begin
}

// Intersects returns true if the two ranges share any time point, including a
// single-endpoint touch.
func (r LiveRange) Intersects(other LiveRange) bool {
	return memutils.Intersect(r.Begin, r.End, other.Begin, other.End) <= memutils.IntersectionTouch
}

// ConflictsWith returns true if the two ranges share more than a single endpoint. A
// touch at r.End == other.Begin is not a conflict: the value beginning there can reuse
// storage the other just released.
func (r LiveRange) ConflictsWith(other LiveRange) bool {
	return memutils.Intersect(r.Begin, r.End, other.Begin, other.End) == memutils.IntersectionOverlap
}

// Contains returns true if the time point t falls inside the closed range.
func (r LiveRange) Contains(t int64) bool {
	return r.Begin <= t && t <= r.End
}

func (r LiveRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Begin, r.End)
}

// MemRegion is a span of bytes inside the arena.
type MemRegion struct {
	Offset int64
	Size   int64
}

// End returns the first byte offset past the region.
func (g MemRegion) End() int64 {
	return g.Offset + g.Size
}

// ConflictsWith returns true if the two regions overlap by more than a single point.
// Abutting regions ([0,N) followed by [N,M)) do not conflict. Regions whose bounds
// cannot be computed in 64 bits are reported as conflicting.
func (g MemRegion) ConflictsWith(other MemRegion) bool {
	if !memutils.ValidAdd(g.Offset, g.Size) || !memutils.ValidAdd(other.Offset, other.Size) {
		return true
	}
	return memutils.Intersect(g.Offset, g.End(), other.Offset, other.End()) == memutils.IntersectionOverlap
}

func (g MemRegion) String() string {
	return fmt.Sprintf("{offset: %d, size: %d}", g.Offset, g.Size)
}

// MemAllocation binds one live range to the arena region it was packed into.
type MemAllocation struct {
	Range  LiveRange
	Region MemRegion
}

// ConflictsWith returns true if the two allocations conflict in both time and space.
func (a MemAllocation) ConflictsWith(other MemAllocation) bool {
	return a.Range.ConflictsWith(other.Range) && a.Region.ConflictsWith(other.Region)
}

func (a MemAllocation) String() string {
	return fmt.Sprintf("%s %s", a.Range, a.Region)
}
