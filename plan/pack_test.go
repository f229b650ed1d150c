package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindOffsetPriorities(t *testing.T) {
	forbidden := func() []MemRegion {
		return []MemRegion{
			{Offset: 0, Size: 64},
			{Offset: 192, Size: 64},
			{Offset: 320, Size: 64},
		}
	}

	// Holes are [64,192) and [256,320). First-fit takes the low, roomy hole;
	// best-fit takes the tight one.
	require.Equal(t, int64(64), findOffset(forbidden(), 64, gapFirst))
	require.Equal(t, int64(256), findOffset(forbidden(), 64, gapSmallest))

	// Nothing interior fits a 256-byte request; both go past the last forbidden byte.
	require.Equal(t, int64(384), findOffset(forbidden(), 256, gapFirst))
	require.Equal(t, int64(384), findOffset(forbidden(), 256, gapSmallest))
}

func TestFindOffsetEmptyForbidden(t *testing.T) {
	require.Equal(t, int64(0), findOffset(nil, 128, gapSmallest))
	require.Equal(t, int64(0), findOffset(nil, 128, gapFirst))
}

func TestFindOffsetOverlappingForbidden(t *testing.T) {
	// Overlapping and contained forbidden regions coalesce during the sweep.
	forbidden := []MemRegion{
		{Offset: 0, Size: 128},
		{Offset: 64, Size: 64},
		{Offset: 64, Size: 32},
	}
	require.Equal(t, int64(128), findOffset(forbidden, 64, gapFirst))
}
