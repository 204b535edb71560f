package wazero

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/reglet-dev/callgate/gateway"
	"github.com/reglet-dev/callgate/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

// defaultCodec builds the codec used when none is configured.
var defaultCodec = func() (*wireformat.Codec, error) { return wireformat.NewCodec() }

// DefaultMaxRequestSize is the default limit on a request read from guest memory.
const DefaultMaxRequestSize = 16 * 1024 * 1024

// Caller is the part of a gateway.Gateway the adapter needs.
type Caller interface {
	Call(ctx context.Context, nout int, inputs ...*entities.Value) ([]*entities.Value, error)
	ClassName() string
}

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Codec converts values to and from their wire form. A Codec passed in
	// stays owned by the caller. When nil, a default Codec is created and
	// closed together with the host module, which includes closing the runtime.
	Codec *wireformat.Codec

	// ModuleName is the host module name (default: "callgate").
	ModuleName string

	// FunctionName is the exported call entry point (default: "call").
	FunctionName string

	// CustomHandlers allows adding additional wazero-specific handlers that
	// don't fit the packed i64 request/response pattern.
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of incoming requests from guest memory.
	// Default is 16MB.
	MaxRequestSize uint32
}

// CustomHandler represents a custom wazero handler that doesn't use the standard
// packed i64 request/response pattern.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "callgate").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithFunctionName sets the exported call function name (default: "call").
func WithFunctionName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.FunctionName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithCodec sets the wire codec. The caller keeps ownership and closes it
// once the runtime is closed.
func WithCodec(codec *wireformat.Codec) AdapterOption {
	return func(c *AdapterConfig) {
		c.Codec = codec
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     "callgate",
		FunctionName:   "call",
		MaxRequestSize: DefaultMaxRequestSize,
	}
}

// RegisterGateway exports gw to guests of runtime as a host module with the
// configured name (default: "callgate").
//
// The call function is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Decode the request and invoke the gateway
//   - Allocate response memory in the guest using the "allocate" export
//   - Write response bytes to guest memory
//   - Return packed i64 ptr+len of the response
func RegisterGateway(ctx context.Context, runtime wazero.Runtime, gw Caller, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	var owned *wireformat.Codec
	if cfg.Codec == nil {
		codec, err := defaultCodec()
		if err != nil {
			return err
		}
		cfg.Codec, owned = codec, codec
		ctx = experimental.WithCloseNotifier(ctx, experimental.CloseNotifyFunc(
			func(context.Context, uint32) { _ = codec.Close() }))
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			handleCall(ctx, mod, stack, gw, cfg)
		}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export(cfg.FunctionName)

	// Register any custom handlers
	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	// Instantiate the host module
	if _, err := builder.Instantiate(ctx); err != nil {
		if owned != nil {
			_ = owned.Close()
		}
		return err
	}
	return nil
}

// handleCall handles a gateway call from WASM.
// It reads the request from guest memory, runs the call, and writes the response.
func handleCall(ctx context.Context, mod api.Module, stack []uint64, gw Caller, cfg AdapterConfig) {
	ptr, length := unpackPtrLen(stack[0])
	mem := mod.Memory()
	if mem == nil {
		slog.ErrorContext(ctx, "wazero: guest module has no memory", "class", gw.ClassName())
		stack[0] = 0
		return
	}

	// Validate request size
	if length > cfg.MaxRequestSize {
		errMsg := fmt.Sprintf("request size %d exceeds maximum %d bytes", length, cfg.MaxRequestSize)
		slog.ErrorContext(ctx, "wazero: "+errMsg, "class", gw.ClassName())
		stack[0] = writeResponse(ctx, mod, marshalResponse(failure(gw, errors.BadSize, errMsg)))
		return
	}

	// Read request bytes from guest memory
	requestBytes, ok := mem.Read(ptr, length)
	if !ok {
		errMsg := "failed to read request from guest memory"
		slog.ErrorContext(ctx, "wazero: "+errMsg, "class", gw.ClassName())
		stack[0] = writeResponse(ctx, mod, marshalResponse(failure(gw, errors.BadSize, errMsg)))
		return
	}

	ctx = WithGuestName(ctx, GetGuestName(ctx, mod))
	stack[0] = writeResponse(ctx, mod, serveCall(ctx, gw, cfg.Codec, requestBytes))
}

// serveCall runs one JSON encoded request against gw and returns the JSON
// encoded response. It never fails: every problem becomes an error response.
func serveCall(ctx context.Context, gw Caller, codec *wireformat.Codec, request []byte) []byte {
	var req wireformat.CallRequestWire
	if err := json.Unmarshal(request, &req); err != nil {
		return marshalResponse(failure(gw, errors.BadType, "malformed request: "+err.Error()))
	}

	ctx, cancel := requestContext(ctx, req.Context)
	defer cancel()

	inputs, err := codec.DecodeInputs(req.Inputs)
	if err != nil {
		return marshalResponse(wireformat.ErrorResponse(gateway.Boundary(gw.ClassName(), "decode", err)))
	}

	outs, err := gw.Call(ctx, req.NumOutputs, inputs...)
	if err != nil {
		return marshalResponse(wireformat.ErrorResponse(err))
	}
	defer func() {
		for _, v := range outs {
			v.Release()
		}
	}()

	encoded, err := codec.EncodeOutputs(outs)
	if err != nil {
		return marshalResponse(wireformat.ErrorResponse(gateway.Boundary(gw.ClassName(), "encode", err)))
	}
	return marshalResponse(wireformat.CallResponseWire{Outputs: encoded})
}

// requestContext applies the wire context's deadline and metadata to ctx.
func requestContext(ctx context.Context, wc wireformat.ContextWireFormat) (context.Context, context.CancelFunc) {
	md := make(map[string]string, len(wc.Metadata)+2)
	for k, v := range wc.Metadata {
		md[k] = v
	}
	if wc.RequestID != "" {
		md["request_id"] = wc.RequestID
	}
	if name, ok := GuestNameFromContext(ctx); ok {
		md["guest"] = name
	}
	ctx = gateway.ContextWithMetadata(ctx, md)

	switch {
	case wc.Deadline != nil:
		return context.WithDeadline(ctx, *wc.Deadline)
	case wc.TimeoutMs > 0:
		return context.WithTimeout(ctx, time.Duration(wc.TimeoutMs)*time.Millisecond)
	}
	return context.WithCancel(ctx)
}

func failure(gw Caller, cond errors.Condition, msg string) wireformat.CallResponseWire {
	return wireformat.ErrorResponse(errors.NewBoundaryError(gw.ClassName(), string(cond), msg, ""))
}

func marshalResponse(resp wireformat.CallResponseWire) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("wazero: failed to marshal response", "error", err)
		data, _ = json.Marshal(wireformat.ErrorResponse(errors.NewBoundaryError("wazero", "encode", err.Error(), "")))
	}
	return data
}

// writeResponse allocates memory in the guest and writes the response bytes.
// Returns packed ptr+len or 0 on failure.
func writeResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	// Call the guest's allocate function
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		slog.ErrorContext(ctx, "wazero: guest module missing 'allocate' export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		slog.ErrorContext(ctx, "wazero: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	// Write data to guest memory
	if !mod.Memory().Write(ptr, data) {
		slog.ErrorContext(ctx, "wazero: failed to write response to guest memory")
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: Data length is bounded by guest memory
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
