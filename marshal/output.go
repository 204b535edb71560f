package marshal

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
)

// NewArray allocates zeroed host storage of element type T and returns it
// with a view over that storage.
func NewArray[T Numeric](mem memory.Allocator, dims ...int) (*entities.Value, View[T], error) {
	v, err := entities.NewNumeric(mem, ClassOf[T](), dims...)
	if err != nil {
		return nil, View[T]{}, err
	}
	return v, View[T]{data: castSlice[T](v.Bytes()), dims: append([]int(nil), dims...)}, nil
}

// NewScalar allocates a 1x1 host array holding x.
func NewScalar[T Numeric](mem memory.Allocator, x T) (*entities.Value, error) {
	v, view, err := NewArray[T](mem, 1, 1)
	if err != nil {
		return nil, err
	}
	view.data[0] = x
	return v, nil
}

// NewBool returns a 1x1 logical value.
func NewBool(mem memory.Allocator, b bool) (*entities.Value, error) {
	v, err := entities.NewNumeric(mem, entities.ClassLogical, 1, 1)
	if err != nil {
		return nil, err
	}
	if b {
		v.Bytes()[0] = 1
	}
	return v, nil
}

// CopyView copies a view into freshly allocated host storage.
func CopyView[T Numeric](mem memory.Allocator, src View[T]) (*entities.Value, error) {
	v, dst, err := NewArray[T](mem, src.dims...)
	if err != nil {
		return nil, err
	}
	copy(dst.data, src.data)
	return v, nil
}

// Output queues an already built value as the next output. The value is
// released if the host did not ask for another output.
func Output(c *args.Cursor, v *entities.Value) error {
	if err := c.PushOutput(v); err != nil {
		v.Release()
		return err
	}
	return nil
}

func makeOutput[T Numeric](c *args.Cursor, dims ...int) (View[T], error) {
	v, view, err := NewArray[T](c.Allocator(), dims...)
	if err != nil {
		return View[T]{}, err
	}
	if err := Output(c, v); err != nil {
		return View[T]{}, err
	}
	return view, nil
}

// MakeOutputVec allocates an n x 1 output and returns a view to fill in place.
func MakeOutputVec[T Numeric](c *args.Cursor, n int) (View[T], error) {
	v, err := makeOutput[T](c, n, 1)
	if err != nil {
		return View[T]{}, err
	}
	v.dims = []int{n}
	return v, nil
}

// MakeOutputMat allocates a rows x cols output.
func MakeOutputMat[T Numeric](c *args.Cursor, rows, cols int) (View[T], error) {
	return makeOutput[T](c, rows, cols)
}

// MakeOutputCube allocates a rows x cols x slices output.
func MakeOutputCube[T Numeric](c *args.Cursor, rows, cols, slices int) (View[T], error) {
	return makeOutput[T](c, rows, cols, slices)
}

// MakeOutputHypercube allocates a four-dimensional output.
func MakeOutputHypercube[T Numeric](c *args.Cursor, rows, cols, slices, hyperslices int) (View[T], error) {
	return makeOutput[T](c, rows, cols, slices, hyperslices)
}

// OutputView copies src into host storage and queues it.
func OutputView[T Numeric](c *args.Cursor, src View[T]) error {
	v, err := CopyView(c.Allocator(), src)
	if err != nil {
		return err
	}
	return Output(c, v)
}

// OutputScalar queues a 1x1 array holding x.
func OutputScalar[T Numeric](c *args.Cursor, x T) error {
	v, err := NewScalar(c.Allocator(), x)
	if err != nil {
		return err
	}
	return Output(c, v)
}

// OutputBool queues a logical scalar.
func OutputBool(c *args.Cursor, b bool) error {
	v, err := NewBool(c.Allocator(), b)
	if err != nil {
		return err
	}
	return Output(c, v)
}

// OutputString queues a char value.
func OutputString(c *args.Cursor, s string) error {
	return Output(c, entities.NewString(s))
}

// OutputStrings queues a cell array of strings.
func OutputStrings(c *args.Cursor, ss []string) error {
	cells := make([]*entities.Value, len(ss))
	for i, s := range ss {
		cells[i] = entities.NewString(s)
	}
	return Output(c, entities.NewCell(cells...))
}
