package plan

import "github.com/cockroachdb/errors"

// AllocationList adapts a slice of allocations to memutils.Validatable.
type AllocationList []MemAllocation

func (l AllocationList) Validate() error {
	return ValidateAllocations(l)
}

// ValidateAllocations proves the allocation set is pairwise conflict-free. A failure here
// is a planner bug, never a user-facing condition; the offending pair is carried in the
// error.
func ValidateAllocations(allocations []MemAllocation) error {
	for i := range allocations {
		for j := range allocations {
			if i == j {
				continue
			}
			if allocations[i].ConflictsWith(allocations[j]) {
				return errors.Newf("conflicting allocations %s and %s", allocations[i], allocations[j])
			}
		}
	}
	return nil
}

// TotalAllocationSize returns the arena extent the allocation set requires.
func TotalAllocationSize(allocations []MemAllocation) int64 {
	var totalSize int64
	for _, alloc := range allocations {
		if end := alloc.Region.End(); end > totalSize {
			totalSize = end
		}
	}
	return totalSize
}
