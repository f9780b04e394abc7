package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// WidgetEventInput is a callback reported by a browser-hosted embed.
type WidgetEventInput struct {
	WidgetID string          `json:"widget_id"`
	Event    dashboard.Event `json:"event"`
}

type eventService interface {
	HandleEvent(ctx context.Context, id string, ev dashboard.Event) error
}

// WidgetEventCommand feeds loaded/rendered/error/dataSelected callbacks into
// the engine.
type WidgetEventCommand struct {
	service   eventService
	telemetry Telemetry
}

// NewWidgetEventCommand builds the command.
func NewWidgetEventCommand(service eventService, telemetry Telemetry) *WidgetEventCommand {
	return &WidgetEventCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[WidgetEventInput] = (*WidgetEventCommand)(nil)

// Execute routes the event.
func (c *WidgetEventCommand) Execute(ctx context.Context, msg WidgetEventInput) error {
	if c.service == nil {
		return errors.New("widget event command requires engine")
	}
	if msg.WidgetID == "" || msg.Event.Kind == "" {
		return errors.New("widget event command requires widget id and kind")
	}
	if err := c.service.HandleEvent(ctx, msg.WidgetID, msg.Event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.widget_event", map[string]any{
		"widget_id": msg.WidgetID,
		"kind":      string(msg.Event.Kind),
	})
	return nil
}
