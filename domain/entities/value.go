package entities

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/tensor"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is a single host call argument.
//
// Numeric and logical values hold their elements in one column-major buffer
// (first dimension varies fastest). Dimensions follow the host convention:
// at least two are always reported and trailing singleton dimensions beyond
// the second are elided.
type Value struct {
	buf    *memory.Buffer
	fields *orderedmap.OrderedMap[string, *Value]
	text   string
	cells  []*Value
	dims   []int
	class  Class
}

// NormalizeDims applies the host dimension convention to dims: a missing
// second dimension becomes 1 and trailing singletons past the second are
// dropped.
func NormalizeDims(dims ...int) []int {
	out := make([]int, 0, max(len(dims), 2))
	out = append(out, dims...)
	for len(out) < 2 {
		out = append(out, 1)
	}
	for len(out) > 2 && out[len(out)-1] == 1 {
		out = out[:len(out)-1]
	}
	return out
}

func numel(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

func checkDims(dims []int) error {
	for i, d := range dims {
		if d < 0 {
			return fmt.Errorf("negative dimension %d at position %d", d, i)
		}
	}
	return nil
}

// ByteLen returns the buffer size in bytes of a class with the given
// dimensions. It fails when a dimension is negative or the size overflows int.
func ByteLen(class Class, dims ...int) (int, error) {
	if err := checkDims(dims); err != nil {
		return 0, err
	}
	n := class.ElemSize()
	for _, d := range dims {
		if d == 0 {
			return 0, nil
		}
		if n > math.MaxInt/d {
			return 0, fmt.Errorf("%s%v exceeds the addressable size", class, dims)
		}
		n *= d
	}
	return n, nil
}

// NewNumeric allocates a zero-filled host array of the given class and shape from mem.
func NewNumeric(mem memory.Allocator, class Class, dims ...int) (*Value, error) {
	if !class.HasBuffer() {
		return nil, fmt.Errorf("class %s has no element buffer", class)
	}
	norm := NormalizeDims(dims...)
	size, err := ByteLen(class, norm...)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(size)
	memory.Set(buf.Bytes(), 0)
	return &Value{class: class, dims: norm, buf: buf}, nil
}

// WrapNumeric builds a host array over caller-owned bytes without copying.
// The byte length must match the element count implied by dims exactly.
func WrapNumeric(class Class, data []byte, dims ...int) (*Value, error) {
	if !class.HasBuffer() {
		return nil, fmt.Errorf("class %s has no element buffer", class)
	}
	norm := NormalizeDims(dims...)
	want, err := ByteLen(class, norm...)
	if err != nil {
		return nil, err
	}
	if len(data) != want {
		return nil, fmt.Errorf("%s%v needs %d bytes, got %d", class, norm, want, len(data))
	}
	return &Value{class: class, dims: norm, buf: memory.NewBufferBytes(data)}, nil
}

// NewString returns a char row vector holding s.
func NewString(s string) *Value {
	return &Value{class: ClassChar, dims: []int{1, len(s)}, text: s}
}

// NewStruct returns an empty 1x1 struct value. Fields are added with SetField.
func NewStruct() *Value {
	return &Value{
		class:  ClassStruct,
		dims:   []int{1, 1},
		fields: orderedmap.New[string, *Value](),
	}
}

// NewCell returns a column cell array holding vals in order.
func NewCell(vals ...*Value) *Value {
	cells := make([]*Value, len(vals))
	copy(cells, vals)
	return &Value{class: ClassCell, dims: []int{len(cells), 1}, cells: cells}
}

// Class returns the element-type tag.
func (v *Value) Class() Class { return v.class }

// Dims returns a copy of the host-reported dimensions.
func (v *Value) Dims() []int {
	out := make([]int, len(v.dims))
	copy(out, v.dims)
	return out
}

// NumDims returns the number of host-reported dimensions (always >= 2).
func (v *Value) NumDims() int { return len(v.dims) }

// Dim returns dimension i, treating dimensions past the reported rank as 1.
func (v *Value) Dim(i int) int {
	if i < len(v.dims) {
		return v.dims[i]
	}
	return 1
}

// NumElements returns the product of all dimensions.
func (v *Value) NumElements() int { return numel(v.dims) }

// Bytes exposes the element buffer of numeric and logical values. The slice
// aliases host storage.
func (v *Value) Bytes() []byte {
	if v.buf == nil {
		return nil
	}
	return v.buf.Bytes()
}

// Text returns the contents of a char value.
func (v *Value) Text() string { return v.text }

// SetField adds or replaces a struct field. Field order is insertion order.
func (v *Value) SetField(name string, field *Value) {
	if v.fields == nil {
		return
	}
	v.fields.Set(name, field)
}

// Field returns the named struct field.
func (v *Value) Field(name string) (*Value, bool) {
	if v.fields == nil {
		return nil, false
	}
	return v.fields.Get(name)
}

// FieldNames returns the struct field names in host order.
func (v *Value) FieldNames() []string {
	if v.fields == nil {
		return nil
	}
	names := make([]string, 0, v.fields.Len())
	for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// NumFields returns the number of struct fields.
func (v *Value) NumFields() int {
	if v.fields == nil {
		return 0
	}
	return v.fields.Len()
}

// Cells returns the elements of a cell array.
func (v *Value) Cells() []*Value {
	out := make([]*Value, len(v.cells))
	copy(out, v.cells)
	return out
}

// Release returns the element buffer, and those of nested values, to the allocator.
func (v *Value) Release() {
	if v == nil {
		return
	}
	if v.buf != nil {
		v.buf.Release()
		v.buf = nil
	}
	for _, c := range v.cells {
		c.Release()
	}
	if v.fields != nil {
		for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value.Release()
		}
	}
}

// Summary describes the class and shape, e.g. "double[3x1]".
func (v *Value) Summary() string {
	parts := make([]string, len(v.dims))
	for i, d := range v.dims {
		parts[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s[%s]", v.class, strings.Join(parts, "x"))
}

// Tensor exposes a numeric value as an Arrow tensor sharing the same buffer.
// The caller must Release the tensor.
func (v *Value) Tensor() (tensor.Interface, error) {
	if !v.class.IsNumeric() {
		return nil, fmt.Errorf("tensor export needs a numeric value, got %s", v.class)
	}
	dt, _ := v.class.ArrowType()
	shape := make([]int64, len(v.dims))
	strides := make([]int64, len(v.dims))
	stride := int64(v.class.ElemSize())
	for i, d := range v.dims {
		shape[i] = int64(d)
		strides[i] = stride
		stride *= int64(d)
	}
	data := array.NewData(dt, v.NumElements(), []*memory.Buffer{nil, v.buf}, nil, 0, 0)
	defer data.Release()
	return tensor.New(data, shape, strides, nil), nil
}
