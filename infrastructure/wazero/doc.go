// Package wazero exports a gateway to WebAssembly guests running in the wazero runtime.
//
// This package bridges the call gate with the wazero WebAssembly runtime. It handles:
//
//   - Converting between packed i64 pointer+length format and byte slices
//   - Reading request data from guest memory
//   - Allocating and writing response data to guest memory
//   - Registering the call entry point with the wazero host module builder
//
// # Basic Usage
//
//	gw, err := gateway.New(vecmath.Class())
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = callgatewazero.RegisterGateway(ctx, runtime, gw,
//	    callgatewazero.WithModuleName("callgate"),
//	)
//
// A guest imports "call" from the host module, passes a packed pointer and
// length of a JSON wireformat.CallRequestWire, and receives a packed pointer
// and length of a JSON wireformat.CallResponseWire written into memory
// obtained from its own "allocate" export.
//
// # Custom Handlers
//
// For functions that don't fit the request/response pattern (like logging),
// use WithCustomHandler:
//
//	callgatewazero.RegisterGateway(ctx, runtime, gw,
//	    callgatewazero.WithCustomHandler(callgatewazero.CustomHandler{
//	        Name:        "log_message",
//	        Handler:     logMessageHandler,
//	        ParamTypes:  []api.ValueType{api.ValueTypeI64},
//	        ResultTypes: []api.ValueType{},
//	    }),
//	)
package wazero
