package dashboard

import (
	"context"
	"encoding/json"
	"io"
)

// View is the payload served to page hosts and the assistant.
type View struct {
	Snapshot Snapshot          `json:"snapshot"`
	Ready    bool              `json:"ready"`
	Order    []string          `json:"order"`
	Shared   SharedFilterState `json:"shared"`
	Save     SaveStatus        `json:"save"`
}

// ViewSource is satisfied by *Engine.
type ViewSource interface {
	Snapshot() Snapshot
	IsReady() bool
	Order() []string
	SharedState() SharedFilterState
	SaveStatus() SaveStatus
}

// Controller assembles read models for transports.
type Controller struct {
	source ViewSource
}

// NewController wires the engine into a controller.
func NewController(source ViewSource) *Controller {
	return &Controller{source: source}
}

// Render collects the current view.
func (c *Controller) Render(ctx context.Context) (View, error) {
	if c.source == nil {
		return View{Order: []string{}}, nil
	}
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	return View{
		Snapshot: c.source.Snapshot(),
		Ready:    c.source.IsReady(),
		Order:    c.source.Order(),
		Shared:   c.source.SharedState(),
		Save:     c.source.SaveStatus(),
	}, nil
}

// RenderJSON writes the current view as JSON.
func (c *Controller) RenderJSON(ctx context.Context, out io.Writer) error {
	view, err := c.Render(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(view)
}
