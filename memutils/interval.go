package memutils

// Intersection is the three-valued result of comparing two integer intervals.
type Intersection int

const (
	// IntersectionOverlap indicates the intervals share more than a single point. It is also
	// returned when the comparison arithmetic would overflow a signed 64-bit integer, so
	// callers treat numerically extreme intervals as conflicting rather than risk a bad plan.
	IntersectionOverlap Intersection = -1
	// IntersectionTouch indicates the intervals share exactly one point.
	IntersectionTouch Intersection = 0
	// IntersectionDisjoint indicates the intervals share no points.
	IntersectionDisjoint Intersection = 1
)

var intersectionMapping = map[Intersection]string{
	IntersectionOverlap:  "Overlap",
	IntersectionTouch:    "Touch",
	IntersectionDisjoint: "Disjoint",
}

func (i Intersection) String() string {
	return intersectionMapping[i]
}

// Intersect compares the closed intervals [a,b] and [c,d], requiring a <= b and c <= d.
// The combined length of the two intervals is measured against the span of their union:
// a combined length smaller than the span means a gap exists, an exactly equal length
// means the intervals meet at a single point, and a larger length means a true overlap.
// Arithmetic that cannot be carried out in 64 bits is reported as an overlap.
func Intersect(a, b, c, d int64) Intersection {
	outerLo := a
	if c < outerLo {
		outerLo = c
	}
	outerHi := b
	if d > outerHi {
		outerHi = d
	}

	if !ValidSub(outerHi, outerLo) {
		return IntersectionOverlap
	}
	outer := outerHi - outerLo

	l1 := b - a
	l2 := d - c
	if !ValidAdd(l1, l2) {
		return IntersectionOverlap
	}
	if !ValidSub(outer, l1+l2) {
		return IntersectionOverlap
	}

	switch {
	case outer > l1+l2:
		return IntersectionDisjoint
	case outer == l1+l2:
		return IntersectionTouch
	default:
		return IntersectionOverlap
	}
}
