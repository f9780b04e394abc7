package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-visualsync/components/dashboard"
	"github.com/goliatone/go-visualsync/components/dashboard/commands"
	"github.com/goliatone/go-visualsync/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Select         gocommand.Commander[commands.SelectDataInput]
	ClearSelection gocommand.Commander[commands.ClearSelectionInput]
	ClearFilters   gocommand.Commander[commands.ClearFiltersInput]
	ApplyFilters   gocommand.Commander[commands.ApplyFiltersInput]
	Reorder        gocommand.Commander[commands.ReorderVisualsInput]
	Add            gocommand.Commander[commands.AddVisualsInput]
	Remove         gocommand.Commander[commands.RemoveVisualInput]
	Event          gocommand.Commander[commands.WidgetEventInput]
	View           gocommand.Querier[queries.ViewInput, dashboard.View]
	Readiness      gocommand.Querier[queries.ReadinessInput, queries.ReadinessResult]
}

// HandleSelect accepts a raw dataSelected payload for the visual. An empty
// payload clears the visual's selection.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request, widgetID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var selection dashboard.SelectionEvent
	if len(body) > 0 {
		if selection, err = dashboard.DecodeSelectionEvent(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	input := commands.SelectDataInput{WidgetID: widgetID, Selection: selection}
	if err := h.Select.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleClearSelection(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.ClearSelection.Execute(r.Context(), commands.ClearSelectionInput{WidgetID: widgetID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.ClearFilters.Execute(r.Context(), commands.ClearFiltersInput{}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleApplyFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.ApplyFilters.Execute(r.Context(), commands.ApplyFiltersInput{}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var payload commands.ReorderVisualsInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Reorder.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleAddVisuals(w http.ResponseWriter, r *http.Request) {
	var payload commands.AddVisualsInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Add.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) HandleRemoveVisual(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.Remove.Execute(r.Context(), commands.RemoveVisualInput{WidgetID: widgetID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWidgetEvent accepts loaded/rendered/error/dataSelected callbacks from
// browser-hosted embeds.
func (h *Handlers) HandleWidgetEvent(w http.ResponseWriter, r *http.Request, widgetID string) {
	var event dashboard.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Event.Execute(r.Context(), commands.WidgetEventInput{WidgetID: widgetID, Event: event}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view, err := h.View.Query(r.Context(), queries.ViewInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *Handlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	res, err := h.Readiness.Query(r.Context(), queries.ReadinessInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrUnknownWidget):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrStaticWidget):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrEngineClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
