package entities

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDims(t *testing.T) {
	tests := []struct {
		in   []int
		want []int
	}{
		{nil, []int{1, 1}},
		{[]int{5}, []int{5, 1}},
		{[]int{3, 4}, []int{3, 4}},
		{[]int{3, 4, 1}, []int{3, 4}},
		{[]int{3, 4, 1, 1}, []int{3, 4}},
		{[]int{3, 4, 2, 1}, []int{3, 4, 2}},
		{[]int{1, 1, 1, 2}, []int{1, 1, 1, 2}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDims(tt.in...), "dims %v", tt.in)
	}
}

func TestNewNumeric(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	v, err := NewNumeric(mem, ClassDouble, 2, 3, 1)
	require.NoError(t, err)
	defer v.Release()

	assert.Equal(t, ClassDouble, v.Class())
	assert.Equal(t, []int{2, 3}, v.Dims())
	assert.Equal(t, 6, v.NumElements())
	assert.Len(t, v.Bytes(), 48)
	assert.Equal(t, 1, v.Dim(5))
	assert.Equal(t, "double[2x3]", v.Summary())
	for _, b := range v.Bytes() {
		assert.Zero(t, b)
	}
}

func TestNewNumeric_Errors(t *testing.T) {
	_, err := NewNumeric(nil, ClassStruct, 1)
	assert.Error(t, err)

	_, err = NewNumeric(nil, ClassDouble, 2, -1)
	assert.Error(t, err)
}

func TestWrapNumeric_ZeroCopy(t *testing.T) {
	raw := arrow.Float64Traits.CastToBytes([]float64{1, 2, 3})

	v, err := WrapNumeric(ClassDouble, raw, 3)
	require.NoError(t, err)

	raw[0] = 0xFF
	assert.Equal(t, byte(0xFF), v.Bytes()[0])

	_, err = WrapNumeric(ClassDouble, raw, 4)
	assert.Error(t, err)
}

func TestWrapNumeric_SizeOverflow(t *testing.T) {
	tests := []struct {
		name string
		dims []int
	}{
		{"wraps to zero", []int{2, 1 << 62}},
		{"wraps through elem size", []int{1 << 61, 1}},
		{"three large dims", []int{1 << 22, 1 << 22, 1 << 22}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WrapNumeric(ClassDouble, nil, tt.dims...)
			assert.ErrorContains(t, err, "exceeds the addressable size")

			_, err = NewNumeric(memory.NewGoAllocator(), ClassDouble, tt.dims...)
			assert.Error(t, err)
		})
	}
}

func TestByteLen(t *testing.T) {
	n, err := ByteLen(ClassInt16, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = ByteLen(ClassDouble, 0, 1<<62)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ByteLen(ClassDouble, -1, 2)
	assert.Error(t, err)
}

func TestStructFieldsKeepOrder(t *testing.T) {
	st := NewStruct()
	st.SetField("zeta", NewString("z"))
	st.SetField("alpha", NewString("a"))
	st.SetField("mid", NewString("m"))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, st.FieldNames())
	assert.Equal(t, 3, st.NumFields())

	f, ok := st.Field("alpha")
	require.True(t, ok)
	assert.Equal(t, "a", f.Text())

	_, ok = st.Field("missing")
	assert.False(t, ok)
}

func TestNewCell(t *testing.T) {
	c := NewCell(NewString("a"), NewString("bc"))
	assert.Equal(t, ClassCell, c.Class())
	assert.Equal(t, []int{2, 1}, c.Dims())
	require.Len(t, c.Cells(), 2)
	assert.Equal(t, "bc", c.Cells()[1].Text())
}

func TestValueTensor(t *testing.T) {
	raw := arrow.Float64Traits.CastToBytes([]float64{1, 2, 3, 4, 5, 6})
	v, err := WrapNumeric(ClassDouble, raw, 2, 3)
	require.NoError(t, err)

	tn, err := v.Tensor()
	require.NoError(t, err)
	defer tn.Release()

	assert.Equal(t, []int64{2, 3}, tn.Shape())
	assert.True(t, tn.IsColMajor())
	f64, ok := tn.(*tensor.Float64)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, f64.Float64Values())

	_, err = NewString("x").Tensor()
	assert.Error(t, err)
}

func TestClass(t *testing.T) {
	assert.True(t, ClassInt8.IsSigned())
	assert.False(t, ClassUint8.IsSigned())
	assert.True(t, ClassSingle.IsFloat())
	assert.False(t, ClassLogical.IsNumeric())
	assert.True(t, ClassLogical.HasBuffer())
	assert.Equal(t, 8, ClassUint64.ElemSize())
	assert.Equal(t, 0, ClassCell.ElemSize())

	c, ok := ParseClass("single")
	require.True(t, ok)
	assert.Equal(t, ClassSingle, c)
	_, ok = ParseClass("unknown")
	assert.False(t, ok)

	dt, ok := ClassInt16.ArrowType()
	require.True(t, ok)
	back, ok := ClassFromArrow(dt)
	require.True(t, ok)
	assert.Equal(t, ClassInt16, back)
}
