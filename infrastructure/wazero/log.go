package wazero

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/reglet-dev/callgate/wireformat"
	"github.com/tetratelabs/wazero/api"
)

// LogFunctionName is the export guests call to forward a log record.
const LogFunctionName = "log_message"

// WithGuestLogging exports log_message(i64), which takes the packed ptr+len of
// a JSON wireformat.LogMessageWire and re-emits the record on logger.
func WithGuestLogging(logger *slog.Logger) AdapterOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithCustomHandler(CustomHandler{
		Name: LogFunctionName,
		Handler: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := unpackPtrLen(stack[0])
			if mod.Memory() == nil {
				return
			}
			data, ok := mod.Memory().Read(ptr, length)
			if !ok {
				logger.WarnContext(ctx, "wazero: failed to read guest log record", "guest", GetGuestName(ctx, mod))
				return
			}
			forwardLog(ctx, logger, GetGuestName(ctx, mod), data)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI64},
		ResultTypes: []api.ValueType{},
	})
}

// forwardLog decodes one guest log record and emits it with the guest name attached.
func forwardLog(ctx context.Context, logger *slog.Logger, guest string, data []byte) {
	var msg wireformat.LogMessageWire
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.WarnContext(ctx, "wazero: malformed guest log record", "guest", guest, "error", err)
		return
	}
	lvl := msg.SlogLevel()
	if !logger.Enabled(ctx, lvl) {
		return
	}

	attrs := make([]slog.Attr, 0, len(msg.Attrs)+2)
	attrs = append(attrs, slog.String("guest", guest))
	if msg.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", msg.RequestID))
	}
	for _, a := range msg.Attrs {
		attrs = append(attrs, a.Attr())
	}
	logger.LogAttrs(ctx, lvl, msg.Message, attrs...)
}
