package gateway

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/callgate/args"
)

// Call is the state of one gateway call as seen by a method.
type Call struct {
	ctx     context.Context
	args    *args.Cursor
	logger  *slog.Logger
	obj     any
	class   string
	command string
	kind    Kind
}

// Context returns the call's context.
func (c *Call) Context() context.Context { return c.ctx }

// Args returns the cursor over the call's remaining inputs and its outputs.
func (c *Call) Args() *args.Cursor { return c.args }

// Logger returns a logger annotated with the class and command.
func (c *Call) Logger() *slog.Logger {
	return c.logger.With("class", c.class, "command", c.command)
}

// Class returns the wrapped class name.
func (c *Call) Class() string { return c.class }

// Command returns the method name being dispatched.
func (c *Call) Command() string { return c.command }

// Kind returns the router branch handling the call.
func (c *Call) Kind() Kind { return c.kind }
