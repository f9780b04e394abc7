package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// ClearSelectionInput names the widget whose selection was cleared.
type ClearSelectionInput struct {
	WidgetID string `json:"widget_id"`
}

type clearSelectionService interface {
	ClearSelection(ctx context.Context, sourceID string) (dashboard.ClearResult, error)
}

// ClearSelectionCommand resets the slots owned by a widget.
type ClearSelectionCommand struct {
	service   clearSelectionService
	telemetry Telemetry
}

// NewClearSelectionCommand builds the command.
func NewClearSelectionCommand(service clearSelectionService, telemetry Telemetry) *ClearSelectionCommand {
	return &ClearSelectionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearSelectionInput] = (*ClearSelectionCommand)(nil)

// Execute clears the widget's selection.
func (c *ClearSelectionCommand) Execute(ctx context.Context, msg ClearSelectionInput) error {
	if c.service == nil {
		return errors.New("clear selection command requires engine")
	}
	if msg.WidgetID == "" {
		return errors.New("clear selection command requires widget id")
	}
	result, err := c.service.ClearSelection(ctx, msg.WidgetID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.clear_selection", map[string]any{
		"widget_id": msg.WidgetID,
		"reset":     len(result.Reset),
	})
	return nil
}

// ClearFiltersInput is the empty payload of the reset-all action.
type ClearFiltersInput struct{}

// ApplyFiltersInput is the empty payload of the re-apply action.
type ApplyFiltersInput struct{}

type filtersService interface {
	ClearAll(ctx context.Context) (dashboard.FanoutResult, error)
	ApplySharedState(ctx context.Context) (dashboard.FanoutResult, error)
}

// ClearFiltersCommand resets every shared slot and every widget.
type ClearFiltersCommand struct {
	service   filtersService
	telemetry Telemetry
}

// NewClearFiltersCommand builds the command.
func NewClearFiltersCommand(service filtersService, telemetry Telemetry) *ClearFiltersCommand {
	return &ClearFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearFiltersInput] = (*ClearFiltersCommand)(nil)

// Execute clears all filters. Per-widget failures are logged by the engine
// and do not fail the command.
func (c *ClearFiltersCommand) Execute(ctx context.Context, _ ClearFiltersInput) error {
	if c.service == nil {
		return errors.New("clear filters command requires engine")
	}
	result, err := c.service.ClearAll(ctx)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.clear_filters", map[string]any{
		"targets": len(result.Targets),
		"failed":  len(result.Failed()),
	})
	return nil
}

// ApplyFiltersCommand pushes the shared slots to every widget.
type ApplyFiltersCommand struct {
	service   filtersService
	telemetry Telemetry
}

// NewApplyFiltersCommand builds the command.
func NewApplyFiltersCommand(service filtersService, telemetry Telemetry) *ApplyFiltersCommand {
	return &ApplyFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyFiltersInput] = (*ApplyFiltersCommand)(nil)

// Execute re-applies the shared state.
func (c *ApplyFiltersCommand) Execute(ctx context.Context, _ ApplyFiltersInput) error {
	if c.service == nil {
		return errors.New("apply filters command requires engine")
	}
	result, err := c.service.ApplySharedState(ctx)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.apply_filters", map[string]any{
		"filters": len(result.Filters),
		"targets": len(result.Targets),
	})
	return nil
}
