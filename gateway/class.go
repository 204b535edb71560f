package gateway

import (
	"fmt"
)

// Constructor builds a new object from the inputs of an "@new" call.
type Constructor[T any] func(call *Call) (T, error)

// MethodOption configures a single registration.
type MethodOption func(*registration)

// WithParams records the parameter struct a method decodes with
// marshal.DecodeParams, so Describe can publish its schema.
func WithParams(proto any) MethodOption {
	return func(r *registration) {
		r.params = proto
	}
}

// WithDoc attaches a one-line description shown by Describe.
func WithDoc(doc string) MethodOption {
	return func(r *registration) {
		r.doc = doc
	}
}

type registration struct {
	method Method
	params any
	name   string
	doc    string
	static bool
}

// Class describes how a Go type is exposed to the host: its constructor and
// its instance and static methods. Objects implementing io.Closer are closed
// when destroyed. The duplicate-name policy is applied when a Gateway is
// built from the Class.
type Class[T any] struct {
	ctor Constructor[T]
	name string
	regs []registration
	errs []error
}

// NewClass starts the description of a wrapped type.
func NewClass[T any](name string, ctor Constructor[T]) *Class[T] {
	c := &Class[T]{name: name, ctor: ctor}
	if name == "" {
		c.errs = append(c.errs, fmt.Errorf("class name cannot be empty"))
	}
	if ctor == nil {
		c.errs = append(c.errs, fmt.Errorf("class %q has no constructor", name))
	}
	return c
}

// Name returns the class name.
func (c *Class[T]) Name() string { return c.name }

// Method registers an instance method. fn receives the object resolved from
// the call's handle token.
func (c *Class[T]) Method(name string, fn func(call *Call, obj T) error, opts ...MethodOption) *Class[T] {
	if fn == nil {
		c.errs = append(c.errs, fmt.Errorf("method %q has no handler", name))
		return c
	}
	bound := func(call *Call) error {
		obj, ok := call.obj.(T)
		if !ok {
			return fmt.Errorf("gateway: no %s object bound to call", c.name)
		}
		return fn(call, obj)
	}
	return c.add(registration{name: name, method: bound}, opts)
}

// Static registers a method that runs without an object.
func (c *Class[T]) Static(name string, fn Method, opts ...MethodOption) *Class[T] {
	if fn == nil {
		c.errs = append(c.errs, fmt.Errorf("static method %q has no handler", name))
		return c
	}
	return c.add(registration{name: name, method: fn, static: true}, opts)
}

func (c *Class[T]) add(r registration, opts []MethodOption) *Class[T] {
	for _, opt := range opts {
		opt(&r)
	}
	c.regs = append(c.regs, r)
	return c
}
