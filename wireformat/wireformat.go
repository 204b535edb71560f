// Package wireformat defines the JSON wire format structures for calls
// between a WebAssembly guest and the gateway host. These types must remain
// stable and backward compatible as they define the ABI contract.
//
// Numeric payloads are the raw little-endian element buffer in column-major
// order, base64 encoded by encoding/json, optionally zstd compressed.
package wireformat

import (
	"time"

	"github.com/reglet-dev/callgate/domain/entities"
)

// EncodingZstd marks a zstd compressed Data payload.
const EncodingZstd = "zstd"

// ErrorDetail is the structured error carried by a failed call.
type ErrorDetail = entities.ErrorDetail

// ContextWireFormat is the JSON wire format for context.Context propagation.
type ContextWireFormat struct {
	Deadline  *time.Time        `json:"deadline,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	TimeoutMs int64             `json:"timeout_ms,omitempty"`
}

// ValueWire is the JSON wire format of one host value.
type ValueWire struct {
	Fields   []FieldWire `json:"fields,omitempty"`
	Cells    []ValueWire `json:"cells,omitempty"`
	Dims     []int       `json:"dims"`
	Data     []byte      `json:"data,omitempty"`
	Class    string      `json:"class"`
	Text     string      `json:"text,omitempty"`
	Encoding string      `json:"encoding,omitempty"`
}

// FieldWire is one named struct field. Fields are a list to keep host order.
type FieldWire struct {
	Name  string    `json:"name"`
	Value ValueWire `json:"value"`
}

// CallRequestWire is the JSON wire format for a gateway call from Guest to Host.
// The first input is the command.
type CallRequestWire struct {
	Inputs     []ValueWire       `json:"inputs"`
	Context    ContextWireFormat `json:"context"`
	NumOutputs int               `json:"nargout"`
}

// CallResponseWire is the JSON wire format for a gateway call response from Host to Guest.
// Exactly one of Error and Outputs is set.
type CallResponseWire struct {
	Error   *ErrorDetail `json:"error,omitempty"`
	Outputs []ValueWire  `json:"outputs,omitempty"`
}
