// Package dashboard re-exports the sync engine for callers that prefer a
// short import path.
package dashboard

import (
	core "github.com/goliatone/go-visualsync/components/dashboard"
)

// Engine exposes the underlying components/dashboard.Engine type.
type Engine = core.Engine

// Options re-export for convenience.
type Options = core.Options

// Config is the page configuration document.
type Config = core.Config

// NewEngine proxies to the internal constructor.
func NewEngine(opts Options) (*Engine, error) {
	return core.NewEngine(opts)
}

// LoadConfig proxies to the internal loader.
func LoadConfig(path string) (Config, error) {
	return core.LoadConfig(path)
}
