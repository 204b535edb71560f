package marshal

import (
	"fmt"

	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

func next[R any](c *args.Cursor, read func(*entities.Value) (R, error)) (R, error) {
	v, err := c.NextInput()
	if err != nil {
		var zero R
		return zero, err
	}
	return read(v)
}

// GetScalar reads the next input as a scalar of exactly type T.
func GetScalar[T Numeric](c *args.Cursor) (T, error) { return next(c, ToScalar[T]) }

// GetVec reads the next input as a vector of exactly type T.
func GetVec[T Numeric](c *args.Cursor) (View[T], error) { return next(c, ToVec[T]) }

// GetMat reads the next input as a matrix of exactly type T.
func GetMat[T Numeric](c *args.Cursor) (View[T], error) { return next(c, ToMat[T]) }

// GetCube reads the next input as a cube of exactly type T.
func GetCube[T Numeric](c *args.Cursor) (View[T], error) { return next(c, ToCube[T]) }

// GetHypercube reads the next input as a hypercube of exactly type T.
func GetHypercube[T Numeric](c *args.Cursor) (View[T], error) { return next(c, ToHypercube[T]) }

// ConvertScalar reads a numeric or logical scalar of any class and converts it to T.
func ConvertScalar[T Numeric](v *entities.Value) (T, error) {
	var zero T
	if !v.Class().HasBuffer() {
		return zero, badType("numeric scalar", v)
	}
	if v.NumElements() != 1 {
		return zero, errors.NewMarshalError(errors.BadSize, "expected scalar, got %s", v.Summary())
	}
	out, err := convertElements[T](v)
	if err != nil {
		return zero, err
	}
	return out[0], nil
}

// ToBool reads a logical or numeric scalar. Any nonzero value is true.
func ToBool(v *entities.Value) (bool, error) {
	if v.Class() == entities.ClassLogical && v.NumElements() == 1 {
		return v.Bytes()[0] != 0, nil
	}
	f, err := ConvertScalar[float64](v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// ToString reads a char value.
func ToString(v *entities.Value) (string, error) {
	if v.Class() != entities.ClassChar {
		return "", badType("char", v)
	}
	return v.Text(), nil
}

// AsScalar reads the next input as a scalar of any numeric class, converted to T.
func AsScalar[T Numeric](c *args.Cursor) (T, error) { return next(c, ConvertScalar[T]) }

// AsInt is AsScalar restricted to integer targets.
func AsInt[T Integer](c *args.Cursor) (T, error) { return next(c, ConvertScalar[T]) }

// AsFloat is AsScalar restricted to floating point targets.
func AsFloat[T Float](c *args.Cursor) (T, error) { return next(c, ConvertScalar[T]) }

// AsBool reads the next input as a boolean.
func AsBool(c *args.Cursor) (bool, error) { return next(c, ToBool) }

// GetString reads the next input as a string.
func GetString(c *args.Cursor) (string, error) { return next(c, ToString) }

func cellOf(v *entities.Value) ([]*entities.Value, error) {
	if v.Class() != entities.ClassCell {
		return nil, badType("cell", v)
	}
	return v.Cells(), nil
}

func cellItem(err error, i int) error {
	return errors.InField(err, fmt.Sprintf("{%d}", i+1))
}

func eachCell[R any](v *entities.Value, read func(*entities.Value) (R, error)) ([]R, error) {
	cells, err := cellOf(v)
	if err != nil {
		return nil, err
	}
	out := make([]R, len(cells))
	for i, cell := range cells {
		if out[i], err = read(cell); err != nil {
			return nil, cellItem(err, i)
		}
	}
	return out, nil
}

// ToStringArray reads a cell array of strings.
func ToStringArray(v *entities.Value) ([]string, error) { return eachCell(v, ToString) }

// ToScalarArray reads a cell array of numeric scalars, or a numeric array,
// converting every element to T.
func ToScalarArray[T Numeric](v *entities.Value) ([]T, error) {
	if v.Class().HasBuffer() {
		return convertElements[T](v)
	}
	return eachCell(v, ConvertScalar[T])
}

// GetStringArray reads the next input as a cell array of strings.
func GetStringArray(c *args.Cursor) ([]string, error) { return next(c, ToStringArray) }

// AsScalarArray reads the next input as a list of scalars converted to T.
func AsScalarArray[T Numeric](c *args.Cursor) ([]T, error) { return next(c, ToScalarArray[T]) }

// GetVecArray reads the next input as a cell array of vectors of exactly type T.
func GetVecArray[T Numeric](c *args.Cursor) ([]View[T], error) {
	return next(c, func(v *entities.Value) ([]View[T], error) { return eachCell(v, ToVec[T]) })
}

// GetMatArray reads the next input as a cell array of matrices of exactly type T.
func GetMatArray[T Numeric](c *args.Cursor) ([]View[T], error) {
	return next(c, func(v *entities.Value) ([]View[T], error) { return eachCell(v, ToMat[T]) })
}

// GetCubeArray reads the next input as a cell array of rank-3 arrays of exactly type T.
func GetCubeArray[T Numeric](c *args.Cursor) ([]View[T], error) {
	return next(c, func(v *entities.Value) ([]View[T], error) { return eachCell(v, ToCube[T]) })
}

// GetHypercubeArray reads the next input as a cell array of rank-4 arrays of exactly type T.
func GetHypercubeArray[T Numeric](c *args.Cursor) ([]View[T], error) {
	return next(c, func(v *entities.Value) ([]View[T], error) { return eachCell(v, ToHypercube[T]) })
}
