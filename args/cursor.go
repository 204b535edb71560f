// Package args provides the per-call argument cursor.
//
// A Cursor reads host inputs in order and queues outputs up to the number the
// host asked for. Arity checks are queries; handlers run them before touching
// cursor state so a malformed call is rejected before any output exists.
package args

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// Cursor tracks the read position over inputs and the write position over outputs.
type Cursor struct {
	mem     memory.Allocator
	inputs  []*entities.Value
	outputs []*entities.Value
	nout    int
	next    int
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithAllocator sets the allocator used for host output storage.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *Cursor) {
		if mem != nil {
			c.mem = mem
		}
	}
}

// New creates a cursor over inputs that accepts at most nout outputs.
func New(nout int, inputs []*entities.Value, opts ...Option) *Cursor {
	c := &Cursor{
		mem:    memory.DefaultAllocator,
		inputs: inputs,
		nout:   max(nout, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allocator returns the allocator for output storage.
func (c *Cursor) Allocator() memory.Allocator { return c.mem }

// NumInputs returns the number of inputs not yet consumed.
func (c *Cursor) NumInputs() int { return len(c.inputs) - c.next }

// NumOutputs returns the number of outputs the host asked for.
func (c *Cursor) NumOutputs() int { return c.nout }

// Produced returns the number of outputs queued so far.
func (c *Cursor) Produced() int { return len(c.outputs) }

// NextInput returns the input at the read position and advances past it.
func (c *Cursor) NextInput() (*entities.Value, error) {
	if c.next >= len(c.inputs) {
		return nil, errors.NewMarshalError(errors.BadNumInputArgs,
			"input #%d requested, only %d supplied", c.next+1, len(c.inputs))
	}
	v := c.inputs[c.next]
	c.next++
	return v, nil
}

// Input returns the remaining input at offset i without advancing.
func (c *Cursor) Input(i int) (*entities.Value, error) {
	pos := c.next + i
	if i < 0 || pos >= len(c.inputs) {
		return nil, errors.NewMarshalError(errors.BadNumInputArgs,
			"input #%d requested, only %d supplied", pos+1, len(c.inputs))
	}
	return c.inputs[pos], nil
}

// Pop discards the input at the read position.
func (c *Cursor) Pop() error {
	_, err := c.NextInput()
	return err
}

// Remaining returns the unread inputs.
func (c *Cursor) Remaining() []*entities.Value {
	out := make([]*entities.Value, c.NumInputs())
	copy(out, c.inputs[c.next:])
	return out
}

// PushOutput queues v as the next output.
func (c *Cursor) PushOutput(v *entities.Value) error {
	if len(c.outputs) >= c.nout {
		return errors.NewMarshalError(errors.BadNumOutputArgs,
			"output #%d produced, only %d requested", len(c.outputs)+1, c.nout)
	}
	c.outputs = append(c.outputs, v)
	return nil
}

// Outputs returns the queued outputs in order.
func (c *Cursor) Outputs() []*entities.Value {
	out := make([]*entities.Value, len(c.outputs))
	copy(out, c.outputs)
	return out
}

// Discard releases every queued output. A failed call surfaces none of them.
func (c *Cursor) Discard() {
	for _, v := range c.outputs {
		v.Release()
	}
	c.outputs = nil
}

// CheckNumInputs requires exactly n remaining inputs.
func (c *Cursor) CheckNumInputs(n int) error {
	return c.CheckInputRange(n, n)
}

// CheckMinInputs requires at least n remaining inputs.
func (c *Cursor) CheckMinInputs(n int) error {
	return c.CheckInputRange(n, -1)
}

// CheckMaxInputs requires at most n remaining inputs.
func (c *Cursor) CheckMaxInputs(n int) error {
	return c.CheckInputRange(-1, n)
}

// CheckInputRange requires between lo and hi remaining inputs.
// A negative bound is not checked.
func (c *Cursor) CheckInputRange(lo, hi int) error {
	return checkRange(errors.BadNumInputArgs, "inputs", c.NumInputs(), lo, hi)
}

// CheckNumOutputs requires the host to have asked for exactly n outputs.
func (c *Cursor) CheckNumOutputs(n int) error {
	return c.CheckOutputRange(n, n)
}

// CheckMinOutputs requires the host to have asked for at least n outputs.
func (c *Cursor) CheckMinOutputs(n int) error {
	return c.CheckOutputRange(n, -1)
}

// CheckMaxOutputs requires the host to have asked for at most n outputs.
func (c *Cursor) CheckMaxOutputs(n int) error {
	return c.CheckOutputRange(-1, n)
}

// CheckOutputRange requires the requested output count to lie in [lo, hi].
// A negative bound is not checked.
func (c *Cursor) CheckOutputRange(lo, hi int) error {
	return checkRange(errors.BadNumOutputArgs, "outputs", c.nout, lo, hi)
}

// CheckNumArgs checks exact output and input counts. A negative count is not checked.
func (c *Cursor) CheckNumArgs(nout, nin int) error {
	if nout >= 0 {
		if err := c.CheckNumOutputs(nout); err != nil {
			return err
		}
	}
	if nin >= 0 {
		return c.CheckNumInputs(nin)
	}
	return nil
}

func checkRange(cond errors.Condition, what string, got, lo, hi int) error {
	switch {
	case lo >= 0 && hi >= 0 && lo == hi && got != lo:
		return errors.NewMarshalError(cond, "expected %d %s, got %d", lo, what, got)
	case lo >= 0 && got < lo:
		return errors.NewMarshalError(cond, "expected at least %d %s, got %d", lo, what, got)
	case hi >= 0 && got > hi:
		return errors.NewMarshalError(cond, "expected at most %d %s, got %d", hi, what, got)
	}
	return nil
}
