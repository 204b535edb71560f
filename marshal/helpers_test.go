package marshal

import (
	"testing"

	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/stretchr/testify/require"
)

// array wraps data as a host array of class ClassOf[T] with the given dims.
func array[T Numeric](t *testing.T, data []T, dims ...int) *entities.Value {
	t.Helper()
	v, err := entities.WrapNumeric(ClassOf[T](), castBytes(data), dims...)
	require.NoError(t, err)
	return v
}

func scalar[T Numeric](t *testing.T, x T) *entities.Value {
	t.Helper()
	return array(t, []T{x}, 1, 1)
}

func logical(t *testing.T, b bool) *entities.Value {
	t.Helper()
	v, err := NewBool(nil, b)
	require.NoError(t, err)
	return v
}
