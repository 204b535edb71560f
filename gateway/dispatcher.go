package gateway

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"github.com/reglet-dev/callgate/domain/errors"
)

// Method is a registered handler. Instance methods are bound to their object
// before they reach a MethodTable.
type Method func(call *Call) error

// OverridePolicy decides what happens when a name is registered twice in one table.
type OverridePolicy int

const (
	// OverrideReject fails registration of a duplicate name.
	OverrideReject OverridePolicy = iota
	// OverrideAllow keeps the last registration.
	OverrideAllow
)

// MethodTable maps command names to methods.
type MethodTable struct {
	methods map[string]Method
	kind    string
	policy  OverridePolicy
}

// NewMethodTable creates an empty table. kind names the table in
// diagnostics, e.g. "instance" or "static".
func NewMethodTable(kind string, policy OverridePolicy) *MethodTable {
	return &MethodTable{methods: make(map[string]Method), kind: kind, policy: policy}
}

// Register adds a method under name.
func (t *MethodTable) Register(name string, m Method) error {
	if name == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if strings.HasPrefix(name, "@") {
		return fmt.Errorf("method name %q is reserved", name)
	}
	if _, exists := t.methods[name]; exists && t.policy == OverrideReject {
		return fmt.Errorf("duplicate %s method name: %q", t.kind, name)
	}
	t.methods[name] = m
	return nil
}

// Lookup returns the method registered under name.
func (t *MethodTable) Lookup(name string) (Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Names returns the registered names, sorted.
func (t *MethodTable) Names() []string {
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher runs methods inside the failure boundary.
type Dispatcher struct {
	logger     *slog.Logger
	middleware []Middleware
}

// NewDispatcher creates a Dispatcher. Middleware executes in FIFO order
// inside the panic boundary.
func NewDispatcher(logger *slog.Logger, mw ...Middleware) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, middleware: mw}
}

// Dispatch looks call.Command() up in table and runs it. The result is nil
// or a *errors.BoundaryError.
func (d *Dispatcher) Dispatch(call *Call, table *MethodTable) error {
	m, ok := table.Lookup(call.command)
	if !ok {
		err := &errors.MethodError{Table: table.kind, Name: call.command, Known: table.Names()}
		d.logger.ErrorContext(call.ctx, "gateway: unknown method",
			"class", call.class, "method", call.command, "registered", err.Known)
		return Boundary(call.class, call.command, err)
	}
	return d.Run(call, m)
}

// Run invokes m through the middleware chain and converts any failure,
// including a panic, into a *errors.BoundaryError.
func (d *Dispatcher) Run(call *Call, m Method) error {
	wrapped := m
	for i := len(d.middleware) - 1; i >= 0; i-- {
		wrapped = d.middleware[i](wrapped)
	}
	wrapped = PanicRecoveryMiddleware()(wrapped)

	err := wrapped(call)
	if err == nil {
		return nil
	}
	be := Boundary(call.class, call.command, err)
	var pe *PanicError
	if stdErrors.As(err, &pe) {
		d.logger.ErrorContext(call.ctx, "gateway: recovered panic",
			"class", call.class, "method", call.command, "id", be.ID, "panic", fmt.Sprint(pe.Value))
	}
	return be
}

// Boundary converts err into the single error a failed call reports.
//
// Structured errors keep their condition, message and causal trace. Panics
// with a runtime error or a non-error value become UnknownException with the
// stack as trace. Anything else is reported under the method name with its
// message only.
func Boundary(component, method string, err error) *errors.BoundaryError {
	var be *errors.BoundaryError
	if stdErrors.As(err, &be) {
		return be
	}

	var pe *PanicError
	if stdErrors.As(err, &pe) {
		perr, isErr := pe.Value.(error)
		var rerr runtime.Error
		if !isErr || stdErrors.As(perr, &rerr) {
			return errors.NewBoundaryError(component, string(errors.UnknownException),
				"unrecoverable fault in "+method, string(pe.Stack))
		}
		err = perr
	}

	if cond, ok := errors.ConditionOf(err); ok {
		msg := strings.TrimPrefix(err.Error(), string(cond)+": ")
		return errors.NewBoundaryError(component, string(cond), msg, errors.CausalTrace(err))
	}
	return errors.NewBoundaryError(component, method, err.Error(), "")
}
