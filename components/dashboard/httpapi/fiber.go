package httpapi

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// MountFiber registers the handlers on a fiber router under base. Handlers
// with a nil commander or querier are skipped.
func MountFiber(app fiber.Router, base string, h *Handlers) {
	group := app.Group(base)
	if h.View != nil {
		group.Get("/view", adaptor.HTTPHandlerFunc(h.HandleView))
	}
	if h.Readiness != nil {
		group.Get("/ready", adaptor.HTTPHandlerFunc(h.HandleReadiness))
	}
	if h.Add != nil {
		group.Post("/visuals", adaptor.HTTPHandlerFunc(h.HandleAddVisuals))
	}
	if h.Reorder != nil {
		group.Post("/visuals/reorder", adaptor.HTTPHandlerFunc(h.HandleReorder))
	}
	if h.Remove != nil {
		group.Delete("/visuals/:id", withWidgetID(h.HandleRemoveVisual))
	}
	if h.Select != nil {
		group.Post("/visuals/:id/selection", withWidgetID(h.HandleSelect))
	}
	if h.ClearSelection != nil {
		group.Delete("/visuals/:id/selection", withWidgetID(h.HandleClearSelection))
	}
	if h.Event != nil {
		group.Post("/visuals/:id/events", withWidgetID(h.HandleWidgetEvent))
	}
	if h.ClearFilters != nil {
		group.Delete("/filters", adaptor.HTTPHandlerFunc(h.HandleClearFilters))
	}
	if h.ApplyFilters != nil {
		group.Post("/filters/apply", adaptor.HTTPHandlerFunc(h.HandleApplyFilters))
	}
}

func withWidgetID(handler func(http.ResponseWriter, *http.Request, string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r, id)
		})(c)
	}
}
