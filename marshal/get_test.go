package marshal

import (
	"testing"

	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters_AdvanceCursor(t *testing.T) {
	c := args.New(0, []*entities.Value{
		scalar(t, 2.5),
		array(t, []int32{1, 2, 3}, 1, 3),
		entities.NewString("mode"),
		logical(t, true),
	})

	x, err := GetScalar[float64](c)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, x, 0)

	vec, err := GetVec[int32](c)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, vec.Data())

	s, err := GetString(c)
	require.NoError(t, err)
	assert.Equal(t, "mode", s)

	b, err := AsBool(c)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = GetMat[float64](c)
	assert.ErrorIs(t, err, errors.BadNumInputArgs)
}

func TestAsScalar_Converts(t *testing.T) {
	c := args.New(0, []*entities.Value{
		scalar(t, 3.0),
		scalar(t, int64(-4)),
		scalar(t, 3.5),
		scalar(t, uint8(200)),
		logical(t, true),
	})

	n, err := AsInt[uint16](c)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), n)

	f, err := AsFloat[float32](c)
	require.NoError(t, err)
	assert.InDelta(t, float32(-4), f, 0)

	i, err := AsScalar[int8](c)
	require.NoError(t, err)
	assert.Equal(t, int8(3), i)

	_, err = AsScalar[int8](c)
	assert.ErrorIs(t, err, errors.BadTypeConversion)

	one, err := AsScalar[float64](c)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, one, 0)
}

func TestConvertScalar_Rejects(t *testing.T) {
	_, err := ConvertScalar[float64](entities.NewString("1"))
	assert.ErrorIs(t, err, errors.BadType)

	_, err = ConvertScalar[float64](array(t, []float64{1, 2}, 2))
	assert.ErrorIs(t, err, errors.BadSize)
}

func TestToBool(t *testing.T) {
	b, err := ToBool(scalar(t, 0.0))
	require.NoError(t, err)
	assert.False(t, b)

	b, err = ToBool(scalar(t, int32(-2)))
	require.NoError(t, err)
	assert.True(t, b)

	_, err = ToBool(entities.NewString("true"))
	assert.ErrorIs(t, err, errors.BadType)
}

func TestStringArray(t *testing.T) {
	c := args.New(0, []*entities.Value{
		entities.NewCell(entities.NewString("a"), entities.NewString("b")),
		entities.NewCell(entities.NewString("a"), scalar(t, 1.0)),
		entities.NewString("plain"),
	})

	ss, err := GetStringArray(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ss)

	_, err = GetStringArray(c)
	require.ErrorIs(t, err, errors.BadType)
	assert.Contains(t, err.Error(), `field "{2}"`)

	_, err = GetStringArray(c)
	assert.ErrorIs(t, err, errors.BadType)
}

func TestAsScalarArray(t *testing.T) {
	c := args.New(0, []*entities.Value{
		entities.NewCell(scalar(t, 1.0), scalar(t, int8(2)), logical(t, true)),
		array(t, []uint16{4, 5, 6}, 3),
		entities.NewCell(scalar(t, 1.5)),
	})

	xs, err := AsScalarArray[int32](c)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 1}, xs)

	xs, err = AsScalarArray[int32](c)
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5, 6}, xs)

	_, err = AsScalarArray[int32](c)
	assert.ErrorIs(t, err, errors.BadTypeConversion)
}

func TestVecAndMatArrays(t *testing.T) {
	c := args.New(0, []*entities.Value{
		entities.NewCell(array(t, []float64{1, 2}, 2), array(t, []float64{3, 4, 5}, 1, 3)),
		entities.NewCell(array(t, []float64{1, 2, 3, 4}, 2, 2), array(t, []float32{1}, 1, 1)),
	})

	vecs, err := GetVecArray[float64](c)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{3, 4, 5}, vecs[1].Data())

	_, err = GetMatArray[float64](c)
	require.ErrorIs(t, err, errors.BadType)
	assert.Contains(t, err.Error(), `field "{2}"`)
}

func TestCubeAndHypercubeArrays(t *testing.T) {
	c := args.New(0, []*entities.Value{
		entities.NewCell(array(t, []int16{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2), array(t, []int16{9, 10}, 1, 2)),
		entities.NewCell(array(t, []int16{1, 2}, 1, 1, 1, 2)),
		entities.NewCell(array(t, []int16{1, 2, 3, 4}, 1, 2, 1, 2), array(t, []int16{1, 2}, 1, 1, 1, 1, 2)),
	})

	cubes, err := GetCubeArray[int16](c)
	require.NoError(t, err)
	require.Len(t, cubes, 2)
	assert.Equal(t, 2, cubes[0].Slices())
	assert.Equal(t, []int{1, 2, 1}, cubes[1].Dims())
	assert.Equal(t, int16(10), cubes[1].At(0, 1, 0))

	_, err = GetCubeArray[int16](c)
	require.ErrorIs(t, err, errors.BadDimensionality)
	assert.Contains(t, err.Error(), `field "{1}"`)

	_, err = GetHypercubeArray[int16](c)
	require.ErrorIs(t, err, errors.BadDimensionality)
	assert.Contains(t, err.Error(), `field "{2}"`)
}
