package dashboard

import (
	"context"

	"go.uber.org/zap"
)

// Telemetry records engine events such as propagations, order changes and
// layout saves.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// ZapTelemetry writes every event as a structured debug entry.
type ZapTelemetry struct {
	Logger *zap.Logger
}

func (t ZapTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	if t.Logger == nil {
		return
	}
	fields := []zap.Field{zap.String("event", event), zap.Any("payload", payload)}
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	t.Logger.Debug("telemetry", fields...)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
