package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// Bootstrap loads the config at configPath (the built-in config when empty),
// builds the engine and mounts it.
func Bootstrap(ctx context.Context, configPath string, opts Options) (*Engine, error) {
	if configPath != "" {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		opts.Config = cfg
	}
	engine, err := NewEngine(opts)
	if err != nil {
		return nil, err
	}
	if err := engine.Mount(ctx); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("dashboard: mount: %w", err)
	}
	return engine, nil
}

// SeedLayout saves the default order for a viewer that has no layout yet. It
// reports whether a layout was written.
func SeedLayout(ctx context.Context, store LayoutStore, cfg Config) (bool, error) {
	if store == nil {
		return false, errMissingLayoutStore
	}
	if _, err := store.LoadLayout(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrLayoutNotFound) {
		return false, fmt.Errorf("dashboard: seed layout: %w", err)
	}
	if cfg.IsZero() {
		cfg = DefaultConfig()
	}
	doc := LayoutDocument{
		VisualOrder:            append([]string{}, cfg.DefaultOrder...),
		SelectedDynamicReports: []ReportKey{},
	}
	if len(doc.VisualOrder) == 0 {
		for _, w := range cfg.Widgets {
			doc.VisualOrder = append(doc.VisualOrder, w.ID)
		}
	}
	if err := store.SaveLayout(ctx, doc); err != nil {
		return false, fmt.Errorf("dashboard: seed layout: %w", err)
	}
	return true, nil
}
