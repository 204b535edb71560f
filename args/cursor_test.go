package args

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(ss ...string) []*entities.Value {
	out := make([]*entities.Value, len(ss))
	for i, s := range ss {
		out[i] = entities.NewString(s)
	}
	return out
}

func TestNextInput_Advances(t *testing.T) {
	c := New(0, texts("a", "b"))

	assert.Equal(t, 2, c.NumInputs())
	v, err := c.NextInput()
	require.NoError(t, err)
	assert.Equal(t, "a", v.Text())
	assert.Equal(t, 1, c.NumInputs())

	peek, err := c.Input(0)
	require.NoError(t, err)
	assert.Equal(t, "b", peek.Text())
	assert.Equal(t, 1, c.NumInputs())

	require.NoError(t, c.Pop())
	_, err = c.NextInput()
	require.ErrorIs(t, err, errors.BadNumInputArgs)
	assert.Contains(t, err.Error(), "input #3 requested, only 2 supplied")
}

func TestRemaining_CopiesUnreadInputs(t *testing.T) {
	c := New(0, texts("a", "b", "c"))
	require.NoError(t, c.Pop())

	rest := c.Remaining()
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].Text())
	assert.Equal(t, "c", rest[1].Text())

	rest[0] = entities.NewString("z")
	v, err := c.NextInput()
	require.NoError(t, err)
	assert.Equal(t, "b", v.Text())

	require.NoError(t, c.Pop())
	assert.Empty(t, c.Remaining())
}

func TestPushOutput_Bounded(t *testing.T) {
	c := New(1, nil)

	require.NoError(t, c.PushOutput(entities.NewString("x")))
	err := c.PushOutput(entities.NewString("y"))
	require.ErrorIs(t, err, errors.BadNumOutputArgs)
	assert.Equal(t, 1, c.Produced())
	assert.Len(t, c.Outputs(), 1)
}

func TestDiscard_ReleasesOutputs(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	c := New(1, nil, WithAllocator(mem))
	v, err := entities.NewNumeric(c.Allocator(), entities.ClassDouble, 4)
	require.NoError(t, err)
	require.NoError(t, c.PushOutput(v))

	c.Discard()
	assert.Zero(t, c.Produced())
}

func TestArityChecks(t *testing.T) {
	c := New(1, texts("a", "b"))

	tests := []struct {
		name string
		err  error
		cond errors.Condition
	}{
		{"exact inputs ok", c.CheckNumInputs(2), ""},
		{"exact inputs short", c.CheckNumInputs(3), errors.BadNumInputArgs},
		{"min inputs", c.CheckMinInputs(3), errors.BadNumInputArgs},
		{"max inputs", c.CheckMaxInputs(1), errors.BadNumInputArgs},
		{"range ok", c.CheckInputRange(1, 4), ""},
		{"range lower skipped", c.CheckInputRange(-1, 2), ""},
		{"exact outputs", c.CheckNumOutputs(0), errors.BadNumOutputArgs},
		{"min outputs", c.CheckMinOutputs(2), errors.BadNumOutputArgs},
		{"max outputs ok", c.CheckMaxOutputs(1), ""},
		{"num args ok", c.CheckNumArgs(1, 2), ""},
		{"num args skip outputs", c.CheckNumArgs(-1, 2), ""},
		{"num args bad inputs", c.CheckNumArgs(-1, 1), errors.BadNumInputArgs},
		{"num args bad outputs", c.CheckNumArgs(2, -1), errors.BadNumOutputArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cond == "" {
				assert.NoError(t, tt.err)
				return
			}
			assert.ErrorIs(t, tt.err, tt.cond)
		})
	}
}

func TestCheckNumInputs_Message(t *testing.T) {
	c := New(0, texts("a"))
	err := c.CheckNumInputs(2)
	require.Error(t, err)
	assert.Equal(t, "BadNumInputArgs: expected 2 inputs, got 1", err.Error())
}
