package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// ReorderVisualsInput is a drag-and-drop move.
type ReorderVisualsInput struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id"`
}

type reorderService interface {
	Reorder(ctx context.Context, activeID, overID string) (bool, error)
}

// ReorderVisualsCommand moves a visual to another visual's position.
type ReorderVisualsCommand struct {
	service   reorderService
	telemetry Telemetry
}

// NewReorderVisualsCommand builds the command.
func NewReorderVisualsCommand(service reorderService, telemetry Telemetry) *ReorderVisualsCommand {
	return &ReorderVisualsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderVisualsInput] = (*ReorderVisualsCommand)(nil)

// Execute applies the move. Unknown ids are a no-op, matching drag-and-drop
// drops outside the list.
func (c *ReorderVisualsCommand) Execute(ctx context.Context, msg ReorderVisualsInput) error {
	if c.service == nil {
		return errors.New("reorder command requires engine")
	}
	moved, err := c.service.Reorder(ctx, msg.ActiveID, msg.OverID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.reorder", map[string]any{
		"active_id": msg.ActiveID,
		"over_id":   msg.OverID,
		"moved":     moved,
	})
	return nil
}

// AddVisualsInput lists reports picked in the report selector. Ids may be
// JSON strings or numbers.
type AddVisualsInput struct {
	ReportIDs []dashboard.ReportKey `json:"report_ids"`
}

type addService interface {
	AddWidgets(ctx context.Context, reportIDs ...any) ([]string, error)
}

// AddVisualsCommand appends dynamic visuals.
type AddVisualsCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddVisualsCommand builds the command.
func NewAddVisualsCommand(service addService, telemetry Telemetry) *AddVisualsCommand {
	return &AddVisualsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddVisualsInput] = (*AddVisualsCommand)(nil)

// Execute appends the reports, skipping ids already on the page.
func (c *AddVisualsCommand) Execute(ctx context.Context, msg AddVisualsInput) error {
	if c.service == nil {
		return errors.New("add visuals command requires engine")
	}
	if len(msg.ReportIDs) == 0 {
		return errors.New("add visuals command requires report ids")
	}
	ids := make([]any, 0, len(msg.ReportIDs))
	for _, id := range msg.ReportIDs {
		ids = append(ids, id)
	}
	added, err := c.service.AddWidgets(ctx, ids...)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.add", map[string]any{
		"requested": len(msg.ReportIDs),
		"added":     added,
	})
	return nil
}

// RemoveVisualInput identifies the dynamic visual to remove.
type RemoveVisualInput struct {
	WidgetID string `json:"widget_id"`
}

type removeService interface {
	RemoveWidget(ctx context.Context, id string) error
}

// RemoveVisualCommand drops a user-added visual.
type RemoveVisualCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveVisualCommand builds the command.
func NewRemoveVisualCommand(service removeService, telemetry Telemetry) *RemoveVisualCommand {
	return &RemoveVisualCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveVisualInput] = (*RemoveVisualCommand)(nil)

// Execute removes the visual.
func (c *RemoveVisualCommand) Execute(ctx context.Context, msg RemoveVisualInput) error {
	if c.service == nil {
		return errors.New("remove command requires engine")
	}
	if err := c.service.RemoveWidget(ctx, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.remove", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
