package gateway

import "context"

// Kind says which branch of the router handled a call.
type Kind string

const (
	KindConstruct Kind = "construct"
	KindDestroy   Kind = "destroy"
	KindStatic    Kind = "static"
	KindInstance  Kind = "instance"
)

// CallHook provides observability callpoints around every gateway call.
// Implementations must be safe for concurrent use.
type CallHook interface {
	OnCallStart(ctx context.Context, info CallInfo) (context.Context, HookToken)
	OnCallEnd(ctx context.Context, token HookToken, info CallInfo, err error)
}

// HookToken is an opaque value returned by OnCallStart and passed back to
// OnCallEnd. Only meaningful to the CallHook that created it.
type HookToken interface{}

// CallInfo carries call metadata passed to hooks.
type CallInfo struct {
	Metadata map[string]string // Transport metadata, see ContextWithMetadata
	Class    string            // Wrapped class name
	Command  string            // Method name; the lifecycle command for construct and destroy
	Kind     Kind
	Inputs   int // Inputs supplied by the host, command included
	Outputs  int // Outputs requested by the host
	Produced int // Outputs returned; zero for a failed call
}

type contextKey string

const metadataKey contextKey = "metadata"

// ContextWithMetadata attaches transport metadata (for example trace
// propagation headers) to ctx. Hooks see it in CallInfo.Metadata.
func ContextWithMetadata(ctx context.Context, md map[string]string) context.Context {
	return context.WithValue(ctx, metadataKey, md)
}

// MetadataFromContext returns the metadata attached by ContextWithMetadata.
func MetadataFromContext(ctx context.Context) map[string]string {
	md, _ := ctx.Value(metadataKey).(map[string]string)
	return md
}
