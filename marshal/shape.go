package marshal

import (
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// CheckScalarSize requires v to hold exactly one element.
func CheckScalarSize(v *entities.Value) error {
	if v.NumElements() != 1 {
		return errors.NewMarshalError(errors.BadSize, "expected scalar, got %s", v.Summary())
	}
	return nil
}

// CheckVectorSize requires vec to have n elements.
func CheckVectorSize[T Numeric](vec View[T], n int) error {
	if vec.Len() != n {
		return errors.NewMarshalError(errors.BadSize, "expected vector of %d elements, got %d", n, vec.Len())
	}
	return nil
}

// CheckMatrixSize requires m to be rows x cols. A negative bound is not checked.
func CheckMatrixSize[T Numeric](m View[T], rows, cols int) error {
	if (rows >= 0 && m.Rows() != rows) || (cols >= 0 && m.Cols() != cols) {
		return errors.NewMarshalError(errors.BadSize,
			"expected %dx%d matrix, got %dx%d", rows, cols, m.Rows(), m.Cols())
	}
	return nil
}

// CheckSameLastDim requires a and b to agree on their last dimension.
func CheckSameLastDim[A, B Numeric](a View[A], b View[B]) error {
	la, lb := a.Dim(a.Rank()-1), b.Dim(b.Rank()-1)
	if la != lb {
		return errors.NewMarshalError(errors.BadSize, "last dimensions differ: %d and %d", la, lb)
	}
	return nil
}

// CheckNdim requires v to report exactly n dimensions.
func CheckNdim(v *entities.Value, n int) error {
	if v.NumDims() != n {
		return errors.NewMarshalError(errors.BadDimensionality,
			"expected %d dimensions, got %d", n, v.NumDims())
	}
	return nil
}

// CheckMaxNdim requires v to report at most n dimensions.
func CheckMaxNdim(v *entities.Value, n int) error {
	if v.NumDims() > n {
		return errors.NewMarshalError(errors.BadDimensionality,
			"expected at most %d dimensions, got %d", n, v.NumDims())
	}
	return nil
}
