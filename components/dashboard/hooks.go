package dashboard

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// MultiHook forwards every engine event to each hook in order. All hooks see
// the event even when an earlier one fails; failures are joined.
type MultiHook []RefreshHook

// EngineUpdated fans the event out.
func (m MultiHook) EngineUpdated(ctx context.Context, event EngineEvent) error {
	var errs []error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.EngineUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogHook records engine events on a zap logger. Widget commands are logged at
// debug level, everything else at info.
type LogHook struct {
	Logger *zap.Logger
}

// EngineUpdated logs the event.
func (h LogHook) EngineUpdated(_ context.Context, event EngineEvent) error {
	if h.Logger == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("type", event.Type),
		zap.Bool("ready", event.Ready),
	}
	if event.WidgetID != "" {
		fields = append(fields, zap.String("widget_id", event.WidgetID))
	}
	if event.Command != "" {
		fields = append(fields, zap.String("command", event.Command))
	}
	if len(event.Filters) > 0 {
		fields = append(fields, zap.Int("filters", len(event.Filters)))
	}
	if event.Type == EventTypeWidgetCommand {
		h.Logger.Debug("engine event", fields...)
		return nil
	}
	h.Logger.Info("engine event", fields...)
	return nil
}
