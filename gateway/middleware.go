package gateway

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Middleware is a function that wraps a Method to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next gateway.Method) gateway.Method {
//	    return func(call *gateway.Call) error {
//	        start := time.Now()
//	        defer func() { record(call.Command(), time.Since(start)) }()
//	        return next(call)
//	    }
//	}
type Middleware func(next Method) Method

// PanicError carries a value recovered from a panicking method.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// PanicRecoveryMiddleware returns a middleware that catches panics and
// converts them to a *PanicError instead of unwinding into the host.
// The Dispatcher always installs it outermost.
func PanicRecoveryMiddleware() Middleware {
	return func(next Method) Method {
		return func(call *Call) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return next(call)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every method invocation
// at debug level, and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Method) Method {
		return func(call *Call) error {
			start := time.Now()
			err := next(call)
			if err != nil {
				logger.WarnContext(call.ctx, "gateway: method failed",
					"class", call.class, "method", call.command, "error", err)
				return err
			}
			logger.DebugContext(call.ctx, "gateway: method completed",
				"class", call.class, "method", call.command, "duration", time.Since(start))
			return nil
		}
	}
}
