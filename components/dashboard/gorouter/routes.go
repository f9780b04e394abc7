package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-visualsync/components/dashboard"
	"github.com/goliatone/go-visualsync/components/dashboard/commands"
	"github.com/goliatone/go-visualsync/components/dashboard/httpapi"
	"github.com/goliatone/go-visualsync/components/dashboard/queries"
)

// Routes is the subset of router.Router used to mount the sync endpoints.
// Any go-router adapter router satisfies it.
type Routes interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Config wires go-router with the engine commands, queries, and broadcast hook.
type Config struct {
	Router    Routes
	API       *httpapi.Handlers
	Broadcast *dashboard.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for the endpoints.
type RouteConfig struct {
	View      string
	Ready     string
	Visuals   string
	VisualID  string
	Reorder   string
	Selection string
	Events    string
	Filters   string
	Apply     string
	WebSocket string
}

// Register mounts the JSON API and the refresh WebSocket.
func Register(cfg Config) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		base = "/visualsync"
	}
	path := func(rel string) string { return base + rel }

	registerQueries(cfg.Router, cfg.API, path, routes)
	registerCommands(cfg.Router, cfg.API, path, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(cfg.Router, cfg.Broadcast, path(routes.WebSocket))
	}
	return nil
}

func registerQueries(r Routes, api *httpapi.Handlers, path func(string) string, routes RouteConfig) {
	if api.View != nil {
		r.Get(path(routes.View), router.WrapHandler(func(ctx router.Context) error {
			view, err := api.View.Query(ctx.Context(), queries.ViewInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, view)
		}))
	}
	if api.Readiness != nil {
		r.Get(path(routes.Ready), router.WrapHandler(func(ctx router.Context) error {
			res, err := api.Readiness.Query(ctx.Context(), queries.ReadinessInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, res)
		}))
	}
}

func registerCommands(r Routes, api *httpapi.Handlers, path func(string) string, routes RouteConfig) {
	if api.Add != nil {
		r.Post(path(routes.Visuals), router.WrapHandler(func(ctx router.Context) error {
			var payload commands.AddVisualsInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			if err := api.Add.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusCreated, map[string]string{"status": "added"})
		}))
	}

	if api.Reorder != nil {
		r.Post(path(routes.Reorder), router.WrapHandler(func(ctx router.Context) error {
			var payload commands.ReorderVisualsInput
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			if err := api.Reorder.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "reordered"})
		}))
	}

	if api.Remove != nil {
		r.Delete(path(routes.VisualID), router.WrapHandler(func(ctx router.Context) error {
			id := ctx.Param("id")
			if id == "" {
				return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
			}
			if err := api.Remove.Execute(ctx.Context(), commands.RemoveVisualInput{WidgetID: id}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
		}))
	}

	if api.Select != nil {
		r.Post(path(routes.Selection), router.WrapHandler(func(ctx router.Context) error {
			var selection dashboard.SelectionEvent
			if body := ctx.Body(); len(body) > 0 {
				decoded, err := dashboard.DecodeSelectionEvent(body)
				if err != nil {
					return respondStatus(ctx, http.StatusBadRequest, err)
				}
				selection = decoded
			}
			input := commands.SelectDataInput{WidgetID: ctx.Param("id"), Selection: selection}
			if err := api.Select.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "propagated"})
		}))
	}

	if api.ClearSelection != nil {
		r.Delete(path(routes.Selection), router.WrapHandler(func(ctx router.Context) error {
			input := commands.ClearSelectionInput{WidgetID: ctx.Param("id")}
			if err := api.ClearSelection.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "cleared"})
		}))
	}

	if api.Event != nil {
		r.Post(path(routes.Events), router.WrapHandler(func(ctx router.Context) error {
			var event dashboard.Event
			if err := json.Unmarshal(ctx.Body(), &event); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			input := commands.WidgetEventInput{WidgetID: ctx.Param("id"), Event: event}
			if err := api.Event.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
		}))
	}

	if api.ClearFilters != nil {
		r.Delete(path(routes.Filters), router.WrapHandler(func(ctx router.Context) error {
			if err := api.ClearFilters.Execute(ctx.Context(), commands.ClearFiltersInput{}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "cleared"})
		}))
	}

	if api.ApplyFilters != nil {
		r.Post(path(routes.Apply), router.WrapHandler(func(ctx router.Context) error {
			if err := api.ApplyFilters.Execute(ctx.Context(), commands.ApplyFiltersInput{}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "applied"})
		}))
	}
}

func registerWebSocket(r Routes, hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusFor(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.View == "" {
		routes.View = "/view"
	}
	if routes.Ready == "" {
		routes.Ready = "/ready"
	}
	if routes.Visuals == "" {
		routes.Visuals = "/visuals"
	}
	if routes.VisualID == "" {
		routes.VisualID = "/visuals/:id"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/visuals/reorder"
	}
	if routes.Selection == "" {
		routes.Selection = "/visuals/:id/selection"
	}
	if routes.Events == "" {
		routes.Events = "/visuals/:id/events"
	}
	if routes.Filters == "" {
		routes.Filters = "/filters"
	}
	if routes.Apply == "" {
		routes.Apply = "/filters/apply"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
