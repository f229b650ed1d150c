package memutils

import (
	"math"

	cerrors "github.com/cockroachdb/errors"
)

// TensorAlignment is the alignment, in bytes, that the platform's default tensor allocator
// emits. Every size handed to the packing heuristics is rounded up to a multiple of this
// value so arena suballocations can be handed to kernels that assume allocator-aligned
// storage.
const TensorAlignment = 64

type Number interface {
	~int | ~uint | ~int64 | ~uint64
}

func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int64, alignment uint) int64 {
	return (value + int64(alignment) - 1) & ^(int64(alignment) - 1)
}

func AlignDown(value int64, alignment uint) int64 {
	return value & ^(int64(alignment) - 1)
}

// AlignTensorSize rounds a tensor byte size up to TensorAlignment.
func AlignTensorSize(size int64) int64 {
	return AlignUp(size, TensorAlignment)
}

// ValidAdd reports whether a+b can be represented in a signed 64-bit integer.
func ValidAdd(a, b int64) bool {
	if b > 0 && a > math.MaxInt64-b {
		return false
	}
	if b < 0 && a < math.MinInt64-b {
		return false
	}
	return true
}

// ValidSub reports whether a-b can be represented in a signed 64-bit integer.
func ValidSub(a, b int64) bool {
	if b < 0 && a > math.MaxInt64+b {
		return false
	}
	if b > 0 && a < math.MinInt64+b {
		return false
	}
	return true
}
