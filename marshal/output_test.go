package marshal

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeOutputVec_WritesInPlace(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	c := args.New(1, nil, args.WithAllocator(mem))
	out, err := MakeOutputVec[float64](c, 3)
	require.NoError(t, err)
	for i := range out.Len() {
		out.Set(float64(i)*1.5, i)
	}

	outs := c.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, entities.ClassDouble, outs[0].Class())
	assert.Equal(t, []int{3, 1}, outs[0].Dims())

	got, err := ToVec[float64](outs[0])
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1.5, 3}, got.Data())

	c.Discard()
}

func TestMakeOutputCube_Dims(t *testing.T) {
	c := args.New(2, nil)

	cube, err := MakeOutputCube[int16](c, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, cube.Dims())
	cube.Set(7, 1, 2, 3)

	hyper, err := MakeOutputHypercube[int16](c, 2, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, hyper.Len())

	outs := c.Outputs()
	assert.Equal(t, []int{2, 3, 4}, outs[0].Dims())
	assert.Equal(t, []int{2, 1}, outs[1].Dims())

	back, err := ToCube[int16](outs[0])
	require.NoError(t, err)
	assert.Equal(t, int16(7), back.At(1, 2, 3))
}

func TestOutput_TooManyReleases(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	c := args.New(0, nil, args.WithAllocator(mem))
	_, err := MakeOutputMat[float64](c, 2, 2)
	assert.ErrorIs(t, err, errors.BadNumOutputArgs)
	assert.ErrorIs(t, OutputScalar(c, 1.0), errors.BadNumOutputArgs)
}

func TestOutputHelpers(t *testing.T) {
	c := args.New(5, nil)
	src, err := NewView([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	require.NoError(t, OutputView(c, src))
	require.NoError(t, OutputScalar(c, uint8(9)))
	require.NoError(t, OutputBool(c, true))
	require.NoError(t, OutputString(c, "done"))
	require.NoError(t, OutputStrings(c, []string{"x", "y"}))

	outs := c.Outputs()
	require.Len(t, outs, 5)

	m, err := ToMat[int32](outs[0])
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, m.Data())
	src.Set(99, 0, 0)
	assert.Equal(t, int32(1), m.At(0, 0))

	u, err := ToScalar[uint8](outs[1])
	require.NoError(t, err)
	assert.Equal(t, uint8(9), u)

	assert.Equal(t, entities.ClassLogical, outs[2].Class())
	assert.Equal(t, "done", outs[3].Text())

	ss, err := ToStringArray(outs[4])
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ss)
}
