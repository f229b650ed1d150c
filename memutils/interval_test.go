package memutils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tensorarena/memplan/memutils"
)

func TestIntersect(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d int64
		want       memutils.Intersection
	}{
		{name: "disjoint", a: 0, b: 1, c: 3, d: 5, want: memutils.IntersectionDisjoint},
		{name: "touch", a: 0, b: 5, c: 5, d: 10, want: memutils.IntersectionTouch},
		{name: "overlap", a: 0, b: 5, c: 4, d: 10, want: memutils.IntersectionOverlap},
		{name: "contained", a: 0, b: 10, c: 2, d: 3, want: memutils.IntersectionOverlap},
		{name: "identical", a: 3, b: 7, c: 3, d: 7, want: memutils.IntersectionOverlap},
		{name: "identical points", a: 4, b: 4, c: 4, d: 4, want: memutils.IntersectionTouch},
		// A degenerate point interval inside a larger one measures as a single-point
		// share: the combined lengths exactly cover the outer span.
		{name: "point inside", a: 4, b: 4, c: 0, d: 10, want: memutils.IntersectionTouch},
		{
			// The combined lengths overflow, and so does the span of the union, which
			// is checked first; the comparison conservatively reports an overlap even
			// though the intervals are disjoint.
			name: "length overflow",
			a:    math.MinInt64, b: -2,
			c: 2, d: math.MaxInt64,
			want: memutils.IntersectionOverlap,
		},
		{
			name: "outer span overflow",
			a:    math.MinInt64, b: math.MinInt64 + 1,
			c: math.MaxInt64 - 1, d: math.MaxInt64,
			want: memutils.IntersectionOverlap,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, memutils.Intersect(test.a, test.b, test.c, test.d))
			// The predicate is symmetric.
			require.Equal(t, test.want, memutils.Intersect(test.c, test.d, test.a, test.b))
		})
	}
}

func TestIntersectionString(t *testing.T) {
	require.Equal(t, "Overlap", memutils.IntersectionOverlap.String())
	require.Equal(t, "Touch", memutils.IntersectionTouch.String())
	require.Equal(t, "Disjoint", memutils.IntersectionDisjoint.String())
}
