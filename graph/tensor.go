package graph

// ScalarType identifies the element type of a tensor.
type ScalarType uint8

const (
	Float32 ScalarType = iota
	Float64
	Float16
	Int64
	Int32
	Int16
	Int8
	UInt8
	Bool
)

var scalarTypeMapping = map[ScalarType]string{
	Float32: "Float32",
	Float64: "Float64",
	Float16: "Float16",
	Int64:   "Int64",
	Int32:   "Int32",
	Int16:   "Int16",
	Int8:    "Int8",
	UInt8:   "UInt8",
	Bool:    "Bool",
}

func (t ScalarType) String() string {
	return scalarTypeMapping[t]
}

// ElementSize returns the width of one element in bytes.
func (t ScalarType) ElementSize() int64 {
	switch t {
	case Float64, Int64:
		return 8
	case Float32, Int32:
		return 4
	case Float16, Int16:
		return 2
	default:
		return 1
	}
}

// TensorType is the statically known tensor type of a graph value. Profiled graphs may
// leave the scalar type, sizes, or strides unknown; such values cannot be sized and fall
// back to the default allocator.
type TensorType struct {
	Scalar      ScalarType
	KnownScalar bool
	Sizes       []int64
	Strides     []int64
}

// StorageSize returns the byte size of the tensor's storage, or false when the scalar
// type or the sizes are not concrete.
func (t *TensorType) StorageSize() (int64, bool) {
	if t == nil || !t.KnownScalar || t.Sizes == nil {
		return 0, false
	}
	numel := int64(1)
	for _, size := range t.Sizes {
		numel *= size
	}
	return numel * t.Scalar.ElementSize(), true
}

// SizesStrides returns the concrete sizes and strides used to materialize an arena-backed
// tensor. A missing size vector, or one whose innermost (last) size is zero, collapses to
// [0]; missing or zero-leading strides are derived row-major from the sizes.
func (t *TensorType) SizesStrides() ([]int64, []int64) {
	sizes := []int64{0}
	if t != nil && len(t.Sizes) > 0 && t.Sizes[len(t.Sizes)-1] != 0 {
		sizes = t.Sizes
	}

	if t != nil && len(t.Strides) > 0 && t.Strides[0] != 0 {
		return sizes, t.Strides
	}
	return sizes, DefaultStrides(sizes)
}

// DefaultStrides computes contiguous row-major strides for the given sizes. Zero-extent
// dimensions stride as if they had extent one.
func DefaultStrides(sizes []int64) []int64 {
	strides := make([]int64, len(sizes))
	stride := int64(1)
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		extent := sizes[i]
		if extent < 1 {
			extent = 1
		}
		stride *= extent
	}
	return strides
}
