package dashboard

import (
	"context"
	"errors"
	"sync"
)

const (
	CommandEmbed         = "embed"
	CommandSetFilters    = "setFilters"
	CommandRemoveFilters = "removeFilters"
	CommandDestroy       = "destroy"
)

var errHandleDestroyed = errors.New("dashboard: embed handle destroyed")

// BridgeEmbedder drives a browser-side embedding library from a server-side
// engine: every handle call is published as a widget_command event and the
// browser reports loaded/rendered/dataSelected back through Engine.HandleEvent.
type BridgeEmbedder struct {
	hook RefreshHook
}

// NewBridgeEmbedder publishes widget commands through hook.
func NewBridgeEmbedder(hook RefreshHook) *BridgeEmbedder {
	if hook == nil {
		hook = noopRefreshHook{}
	}
	return &BridgeEmbedder{hook: hook}
}

// Embed announces the widget to the browser and returns its handle.
func (b *BridgeEmbedder) Embed(ctx context.Context, widget WidgetRef, cfg EmbedConfig) (EmbedHandle, error) {
	handle := &bridgeHandle{id: widget.ID(), hook: b.hook}
	if err := b.hook.EngineUpdated(ctx, EngineEvent{
		Type:     EventTypeWidgetCommand,
		WidgetID: widget.ID(),
		Command:  CommandEmbed,
	}); err != nil {
		return nil, err
	}
	return handle, nil
}

type bridgeHandle struct {
	id   string
	hook RefreshHook

	mu        sync.Mutex
	destroyed bool
}

// On is a no-op: browser callbacks arrive through Engine.HandleEvent.
func (h *bridgeHandle) On(EventKind, func(Event)) {}

func (h *bridgeHandle) SetFilters(ctx context.Context, filters []FilterDescriptor) error {
	return h.publish(ctx, CommandSetFilters, filters)
}

func (h *bridgeHandle) RemoveFilters(ctx context.Context) error {
	return h.publish(ctx, CommandRemoveFilters, nil)
}

func (h *bridgeHandle) Destroy() error {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return nil
	}
	h.destroyed = true
	h.mu.Unlock()
	return h.hook.EngineUpdated(context.Background(), EngineEvent{
		Type:     EventTypeWidgetCommand,
		WidgetID: h.id,
		Command:  CommandDestroy,
	})
}

func (h *bridgeHandle) publish(ctx context.Context, command string, filters []FilterDescriptor) error {
	h.mu.Lock()
	destroyed := h.destroyed
	h.mu.Unlock()
	if destroyed {
		return errHandleDestroyed
	}
	return h.hook.EngineUpdated(ctx, EngineEvent{
		Type:     EventTypeWidgetCommand,
		WidgetID: h.id,
		Command:  command,
		Filters:  filters,
	})
}
