package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/application/schema"
	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/reglet-dev/callgate/internal/handle"
	"github.com/reglet-dev/callgate/marshal"
)

// Lifecycle commands.
const (
	CommandNew    = "@new"
	CommandDelete = "@delete"
	CommandStatic = "@static"
)

// Gateway is the call entry point for one wrapped class.
// It keeps no per-call state; only the handle registry survives between calls.
type Gateway[T any] struct {
	hook       CallHook
	mem        memory.Allocator
	ctor       Constructor[T]
	logger     *slog.Logger
	registry   *handle.Registry
	dispatcher *Dispatcher
	instance   *MethodTable
	static     *MethodTable
	regs       map[string]registration
	name       string
	mu         sync.RWMutex
}

// New builds a Gateway for cls. It fails if cls is incomplete or, under
// OverrideReject, registers a name twice in the same table.
func New[T any](cls *Class[T], opts ...Option) (*Gateway[T], error) {
	if len(cls.errs) > 0 {
		return nil, cls.errs[0]
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gateway[T]{
		hook:       cfg.hook,
		mem:        cfg.mem,
		ctor:       cls.ctor,
		logger:     cfg.logger,
		registry:   cfg.registry,
		dispatcher: NewDispatcher(cfg.logger, cfg.middleware...),
		instance:   NewMethodTable("instance", cfg.policy),
		static:     NewMethodTable("static", cfg.policy),
		regs:       make(map[string]registration, len(cls.regs)),
		name:       cls.name,
	}

	for _, r := range cls.regs {
		table := g.instance
		if r.static {
			table = g.static
		}
		if err := table.Register(r.name, r.method); err != nil {
			return nil, fmt.Errorf("class %s: %w", cls.name, err)
		}
		g.regs[regKey(r.static, r.name)] = r
	}
	return g, nil
}

func regKey(static bool, name string) string {
	if static {
		return CommandStatic + " " + name
	}
	return name
}

// ClassName returns the wrapped class name.
func (g *Gateway[T]) ClassName() string { return g.name }

// SetCallHook replaces the installed CallHook. A nil hook disables it.
func (g *Gateway[T]) SetCallHook(h CallHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hook = h
}

func (g *Gateway[T]) callHook() CallHook {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hook
}

// Call runs one host call. The first input is the command. On success it
// returns the outputs the method produced; on failure it returns no outputs
// and a *errors.BoundaryError.
func (g *Gateway[T]) Call(ctx context.Context, nout int, inputs ...*entities.Value) ([]*entities.Value, error) {
	cur := args.New(nout, inputs, args.WithAllocator(g.mem))
	call := &Call{ctx: ctx, args: cur, logger: g.logger, class: g.name}
	err := g.parse(call)

	info := CallInfo{
		Metadata: MetadataFromContext(ctx),
		Class:    g.name,
		Command:  call.command,
		Kind:     call.kind,
		Inputs:   len(inputs),
		Outputs:  nout,
	}
	hook := g.callHook()
	var token HookToken
	if hook != nil {
		ctx, token = hook.OnCallStart(ctx, info)
		call.ctx = ctx
	}

	if err == nil {
		err = g.route(call)
	}

	var outs []*entities.Value
	if err != nil {
		cur.Discard()
	} else {
		outs = cur.Outputs()
	}

	if hook != nil {
		info.Produced = len(outs)
		hook.OnCallEnd(ctx, token, info, err)
	}
	if err != nil {
		return nil, err
	}
	return outs, nil
}

// parse pops the command, and for "@static" the real method name.
func (g *Gateway[T]) parse(call *Call) error {
	cmd, err := marshal.GetString(call.args)
	if err != nil {
		return Boundary(g.name, "command", err)
	}
	call.command = cmd

	switch cmd {
	case CommandNew:
		call.kind = KindConstruct
	case CommandDelete:
		call.kind = KindDestroy
	case CommandStatic:
		call.kind = KindStatic
		name, err := marshal.GetString(call.args)
		if err != nil {
			return Boundary(g.name, cmd, err)
		}
		call.command = name
	default:
		call.kind = KindInstance
	}
	return nil
}

func (g *Gateway[T]) route(call *Call) error {
	switch call.kind {
	case KindConstruct:
		return g.dispatcher.Run(call, g.construct)
	case KindDestroy:
		return g.dispatcher.Run(call, g.destroy)
	case KindStatic:
		return g.dispatcher.Dispatch(call, g.static)
	}

	obj, err := g.resolve(call)
	if err != nil {
		return Boundary(g.name, call.command, err)
	}
	call.obj = obj
	return g.dispatcher.Dispatch(call, g.instance)
}

func (g *Gateway[T]) construct(call *Call) error {
	if err := call.args.CheckNumOutputs(1); err != nil {
		return err
	}
	obj, err := g.ctor(call)
	if err != nil {
		return err
	}
	tok := handle.Make(g.registry, obj)
	if err := marshal.OutputScalar(call.args, uint64(tok)); err != nil {
		_ = handle.Destroy[T](g.registry, tok)
		return err
	}
	g.logger.DebugContext(call.ctx, "gateway: object created", "class", g.name, "token", uint64(tok))
	return nil
}

func (g *Gateway[T]) destroy(call *Call) error {
	if err := call.args.CheckNumArgs(0, 1); err != nil {
		return err
	}
	raw, err := marshal.GetScalar[uint64](call.args)
	if err != nil {
		return err
	}
	if err := handle.Destroy[T](g.registry, handle.Token(raw)); err != nil {
		return err
	}
	g.logger.DebugContext(call.ctx, "gateway: object destroyed", "class", g.name, "token", raw)
	return nil
}

func (g *Gateway[T]) resolve(call *Call) (T, error) {
	raw, err := marshal.GetScalar[uint64](call.args)
	if err != nil {
		var zero T
		return zero, err
	}
	return handle.Resolve[T](g.registry, handle.Token(raw))
}

// Close fails with HandlesOutstanding while the registry holds live objects
// of this gateway's type. Objects of other gateways sharing the registry do
// not count.
func (g *Gateway[T]) Close() error {
	if n := handle.OutstandingOf[T](g.registry); n > 0 {
		return errors.NewBoundaryError(g.name, string(errors.HandlesOutstanding),
			fmt.Sprintf("%d objects still live", n), "")
	}
	return nil
}

// CloseForce destroys every live object of this gateway's type and returns
// how many there were.
func (g *Gateway[T]) CloseForce() int {
	n := handle.DestroyAllOf[T](g.registry)
	if n > 0 {
		g.logger.Warn("gateway: destroyed live objects on close", "class", g.name, "count", n)
	}
	return n
}

// MethodDescription describes one registered method.
type MethodDescription struct {
	Name   string          `json:"name"`
	Doc    string          `json:"doc,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Description lists what a Gateway exposes.
type Description struct {
	Class   string              `json:"class"`
	Methods []MethodDescription `json:"methods"`
	Statics []MethodDescription `json:"statics"`
}

// Describe lists the instance and static methods, sorted by name, with the
// JSON Schema of any parameter struct registered through WithParams.
func (g *Gateway[T]) Describe() (Description, error) {
	d := Description{Class: g.name}
	var err error
	if d.Methods, err = g.describeTable(g.instance, false); err != nil {
		return Description{}, err
	}
	if d.Statics, err = g.describeTable(g.static, true); err != nil {
		return Description{}, err
	}
	return d, nil
}

func (g *Gateway[T]) describeTable(t *MethodTable, static bool) ([]MethodDescription, error) {
	names := t.Names()
	out := make([]MethodDescription, 0, len(names))
	for _, name := range names {
		r := g.regs[regKey(static, name)]
		md := MethodDescription{Name: name, Doc: r.doc}
		if r.params != nil {
			s, err := schema.GenerateSchema(r.params)
			if err != nil {
				return nil, fmt.Errorf("schema for %s: %w", name, err)
			}
			md.Params = s
		}
		out = append(out, md)
	}
	return out, nil
}
