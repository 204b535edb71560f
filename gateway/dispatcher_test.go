package gateway

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundary(t *testing.T) {
	wrapped := fmt.Errorf("reading weights: %w", errors.NewMarshalError(errors.BadSize, "expected 3 elements, got 2"))

	tests := []struct {
		name    string
		err     error
		id      string
		message string
		trace   bool
	}{
		{
			name:    "marshal error",
			err:     errors.NewMarshalError(errors.BadType, "expected double, got int32[1x1]"),
			id:      "Vec3:BadType",
			message: "expected double, got int32[1x1]",
		},
		{
			name:    "wrapped marshal error",
			err:     wrapped,
			id:      "Vec3:BadSize",
			message: "reading weights: BadSize: expected 3 elements, got 2",
			trace:   true,
		},
		{
			name:    "native error",
			err:     stdErrors.New("singular matrix"),
			id:      "Vec3:solve",
			message: "singular matrix",
		},
		{
			name:    "string panic",
			err:     &PanicError{Value: "bad state", Stack: []byte("stack")},
			id:      "Vec3:UnknownException",
			message: "unrecoverable fault in solve",
			trace:   true,
		},
		{
			name:    "error panic",
			err:     &PanicError{Value: errors.NewMarshalError(errors.BadSize, "short")},
			id:      "Vec3:BadSize",
			message: "short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := Boundary("Vec3", "solve", tt.err)
			assert.Equal(t, tt.id, be.ID)
			assert.Equal(t, tt.message, be.Message)
			assert.Equal(t, tt.trace, be.Trace != "")
		})
	}
}

func TestBoundary_PassesThroughBoundaryErrors(t *testing.T) {
	orig := errors.NewBoundaryError("Other", "Custom", "msg", "")
	assert.Same(t, orig, Boundary("Vec3", "solve", fmt.Errorf("wrap: %w", orig)))
}

func TestBoundary_SanitizesID(t *testing.T) {
	be := Boundary("my::Class<T>", "do_thing!", stdErrors.New("x"))
	assert.Equal(t, "myClassT:dothing", be.ID)
}

func TestMethodTable(t *testing.T) {
	table := NewMethodTable("instance", OverrideReject)
	noop := func(*Call) error { return nil }

	require.NoError(t, table.Register("b", noop))
	require.NoError(t, table.Register("a", noop))
	assert.Error(t, table.Register("a", noop))
	assert.Error(t, table.Register("", noop))
	assert.Equal(t, []string{"a", "b"}, table.Names())

	_, ok := table.Lookup("c")
	assert.False(t, ok)
}

func TestDispatch_EmptyTable(t *testing.T) {
	d := NewDispatcher(nil)
	call := &Call{ctx: context.Background(), class: "Empty", command: "anything"}

	err := d.Dispatch(call, NewMethodTable("static", OverrideReject))
	require.ErrorIs(t, err, errors.UnknownMethod)
	assert.Contains(t, err.Error(), "registered: none")
}

func TestPanicError(t *testing.T) {
	cause := stdErrors.New("cause")
	pe := &PanicError{Value: cause}
	assert.ErrorIs(t, pe, cause)
	assert.Equal(t, "panic: cause", pe.Error())
	assert.NoError(t, (&PanicError{Value: 42}).Unwrap())
}
