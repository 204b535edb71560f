package marshal

import (
	"fmt"
	"math"

	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// View is a column-major window over host storage with rank 1 to 4.
type View[T Numeric] struct {
	data []T
	dims []int
}

// NewView wraps data with the given dimensions. The element count must match.
func NewView[T Numeric](data []T, dims ...int) (View[T], error) {
	if len(dims) == 0 || len(dims) > 4 {
		return View[T]{}, errors.NewMarshalError(errors.BadDimensionality,
			"expected 1 to 4 dimensions, got %d", len(dims))
	}
	if n, ok := product(dims); !ok || n != len(data) {
		return View[T]{}, errors.NewMarshalError(errors.BadSize,
			"dimensions %v need %d elements, got %d", dims, n, len(data))
	}
	return View[T]{data: data, dims: append([]int(nil), dims...)}, nil
}

// Data returns the elements in column-major order. The slice aliases host storage.
func (v View[T]) Data() []T { return v.data }

// Dims returns a copy of the dimensions.
func (v View[T]) Dims() []int { return append([]int(nil), v.dims...) }

// Rank returns the number of dimensions.
func (v View[T]) Rank() int { return len(v.dims) }

// Len returns the number of elements.
func (v View[T]) Len() int { return len(v.data) }

// Dim returns dimension i, or 1 past the rank.
func (v View[T]) Dim(i int) int {
	if i < len(v.dims) {
		return v.dims[i]
	}
	return 1
}

// Rows returns dimension 0.
func (v View[T]) Rows() int { return v.Dim(0) }

// Cols returns dimension 1, or 1 for a rank-1 view.
func (v View[T]) Cols() int { return v.Dim(1) }

// Slices returns dimension 2, or 1 below rank 3.
func (v View[T]) Slices() int { return v.Dim(2) }

// Hyperslices returns dimension 3, or 1 below rank 4.
func (v View[T]) Hyperslices() int { return v.Dim(3) }

// At returns the element at idx. Missing trailing indices are 0.
func (v View[T]) At(idx ...int) T { return v.data[v.offset(idx)] }

// Set stores x at idx.
func (v View[T]) Set(x T, idx ...int) { v.data[v.offset(idx)] = x }

func (v View[T]) offset(idx []int) int {
	if len(idx) > len(v.dims) {
		panic(fmt.Sprintf("marshal: %d indices for rank %d view", len(idx), len(v.dims)))
	}
	off, stride := 0, 1
	for i, d := range v.dims {
		k := 0
		if i < len(idx) {
			k = idx[i]
		}
		if k < 0 || k >= d {
			panic(fmt.Sprintf("marshal: index %d out of range [0,%d) in dimension %d", k, d, i))
		}
		off += k * stride
		stride *= d
	}
	return off
}

// product multiplies dims, reporting false on a negative dimension or overflow.
func product(dims []int) (int, bool) {
	n := 1
	for _, d := range dims {
		if d < 0 || (d > 0 && n > math.MaxInt/d) {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func badType(want string, v *entities.Value) error {
	return errors.NewMarshalError(errors.BadType, "expected %s, got %s", want, v.Summary())
}

func requireClass[T Numeric](v *entities.Value) error {
	if want := ClassOf[T](); v.Class() != want {
		return badType(want.String(), v)
	}
	return nil
}

func requireNonEmpty(v *entities.Value) error {
	for _, d := range v.Dims() {
		if d <= 0 {
			return errors.NewMarshalError(errors.BadSize, "expected non-empty array, got %s", v.Summary())
		}
	}
	return nil
}

// view runs the class, rank and size checks in that order, then casts.
func view[T Numeric](v *entities.Value, shape func([]int) ([]int, error)) (View[T], error) {
	if err := requireClass[T](v); err != nil {
		return View[T]{}, err
	}
	dims, err := shape(v.Dims())
	if err != nil {
		return View[T]{}, err
	}
	if err := requireNonEmpty(v); err != nil {
		return View[T]{}, err
	}
	return View[T]{data: castSlice[T](v.Bytes()), dims: dims}, nil
}

func vecShape(dims []int) ([]int, error) {
	if len(dims) != 2 || (dims[0] > 1 && dims[1] > 1) {
		return nil, errors.NewMarshalError(errors.BadDimensionality,
			"expected vector, got dimensions %v", dims)
	}
	return []int{dims[0] * dims[1]}, nil
}

func matShape(dims []int) ([]int, error) {
	if len(dims) != 2 {
		return nil, errors.NewMarshalError(errors.BadDimensionality,
			"expected matrix, got %d dimensions", len(dims))
	}
	return dims, nil
}

func padShape(rank int, what string) func([]int) ([]int, error) {
	return func(dims []int) ([]int, error) {
		if len(dims) > rank {
			return nil, errors.NewMarshalError(errors.BadDimensionality,
				"expected %s of at most %d dimensions, got %d", what, rank, len(dims))
		}
		out := make([]int, rank)
		for i := range out {
			out[i] = 1
		}
		copy(out, dims)
		return out, nil
	}
}

// ToScalar reads a single element of exactly type T.
func ToScalar[T Numeric](v *entities.Value) (T, error) {
	var zero T
	if err := requireClass[T](v); err != nil {
		return zero, err
	}
	if v.NumElements() != 1 {
		return zero, errors.NewMarshalError(errors.BadSize, "expected scalar, got %s", v.Summary())
	}
	return castSlice[T](v.Bytes())[0], nil
}

// ToVec views a 1xN or Nx1 array as a vector.
func ToVec[T Numeric](v *entities.Value) (View[T], error) {
	return view[T](v, vecShape)
}

// ToMat views a 2-D array as a matrix.
func ToMat[T Numeric](v *entities.Value) (View[T], error) {
	return view[T](v, matShape)
}

// ToCube views a 2-D or 3-D array as a cube. A matrix becomes a single slice.
func ToCube[T Numeric](v *entities.Value) (View[T], error) {
	return view[T](v, padShape(3, "cube"))
}

// ToHypercube views an array of up to 4 dimensions as a hypercube.
func ToHypercube[T Numeric](v *entities.Value) (View[T], error) {
	return view[T](v, padShape(4, "hypercube"))
}
