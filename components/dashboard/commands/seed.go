package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// SeedLayoutInput selects the viewer whose layout should be seeded.
type SeedLayoutInput struct {
	BearerToken string `json:"-"`
}

// SeedLayoutCommand writes the default order for viewers without a layout.
type SeedLayoutCommand struct {
	store     dashboard.LayoutStore
	config    dashboard.Config
	telemetry Telemetry
}

// NewSeedLayoutCommand wires dependencies. A zero config seeds the built-in
// page.
func NewSeedLayoutCommand(store dashboard.LayoutStore, cfg dashboard.Config, telemetry Telemetry) *SeedLayoutCommand {
	return &SeedLayoutCommand{store: store, config: cfg, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedLayoutInput] = (*SeedLayoutCommand)(nil)

// Execute seeds the layout when none exists.
func (c *SeedLayoutCommand) Execute(ctx context.Context, msg SeedLayoutInput) error {
	if c.store == nil {
		return errors.New("seed command requires layout store")
	}
	if msg.BearerToken != "" {
		ctx = dashboard.ContextWithBearerToken(ctx, msg.BearerToken)
	}
	seeded, err := dashboard.SeedLayout(ctx, c.store, c.config)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.seed", map[string]any{"seeded": seeded})
	return nil
}
