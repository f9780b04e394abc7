package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// SelectDataInput carries a dataSelected payload reported for a widget.
type SelectDataInput struct {
	WidgetID  string                   `json:"widget_id"`
	Selection dashboard.SelectionEvent `json:"selection"`
}

type selectService interface {
	Select(ctx context.Context, sourceID string, sel dashboard.SelectionEvent) (dashboard.SelectionResult, error)
	ClearSelection(ctx context.Context, sourceID string) (dashboard.ClearResult, error)
}

// SelectDataCommand propagates a selection to the other widgets. An empty
// selection clears the widget's filters instead.
type SelectDataCommand struct {
	service   selectService
	telemetry Telemetry
}

// NewSelectDataCommand builds the command.
func NewSelectDataCommand(service selectService, telemetry Telemetry) *SelectDataCommand {
	return &SelectDataCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectDataInput] = (*SelectDataCommand)(nil)

// Execute routes the selection through the engine.
func (c *SelectDataCommand) Execute(ctx context.Context, msg SelectDataInput) error {
	if c.service == nil {
		return errors.New("select command requires engine")
	}
	if msg.WidgetID == "" {
		return errors.New("select command requires widget id")
	}
	if len(msg.Selection.DataPoints) == 0 {
		_, err := c.service.ClearSelection(ctx, msg.WidgetID)
		return err
	}
	result, err := c.service.Select(ctx, msg.WidgetID, msg.Selection)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.select", map[string]any{
		"widget_id": msg.WidgetID,
		"applied":   result.Applied,
		"value":     result.Filter.Value,
	})
	return nil
}
