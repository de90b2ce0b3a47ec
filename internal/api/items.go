package api

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/catt-bridge/internal/core"
	"github.com/nerrad567/catt-bridge/internal/value"
)

// ItemSummary is one entry of GET /api/v1/items.
type ItemSummary struct {
	Name string     `json:"name"`
	Meta *core.Meta `json:"meta,omitempty"`
}

// ItemState is the body of GET and PUT /api/v1/items/{name}.
//
// Stale is set when the device could not be read and Value is the last state
// the bridge published instead.
type ItemState struct {
	Name  string     `json:"name"`
	Value string     `json:"value"`
	Type  string     `json:"type"`
	Stale bool       `json:"stale,omitempty"`
	Meta  *core.Meta `json:"meta,omitempty"`
}

// handleListItems returns every live item sorted by name.
func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	items := s.binding.Items()

	out := make([]ItemSummary, 0, len(items))
	for name, item := range items {
		out = append(out, ItemSummary{Name: name, Meta: item.Meta()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"count": len(out),
	})
}

// handleGetItem reads the current value of one item. When the read fails it
// falls back to the bridge's last observed state, if it has one.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	item, ok := s.binding.Item(name)
	if !ok {
		writeNotFound(w, "item not found: "+name)
		return
	}

	v, err := item.Value()
	if err != nil {
		s.logger.Warn("failed to read item", "item", name, "error", err, "request_id", requestID(r))
		if s.bridge != nil {
			if last, ok := s.bridge.LastState(name); ok {
				writeItemState(w, http.StatusOK, name, last, item.Meta(), true)
				return
			}
		}
		writeItemError(w, err)
		return
	}

	writeItemState(w, http.StatusOK, name, v, item.Meta(), false)
}

// handleSetItem applies the raw request body to an item, exactly as a
// command published on the bus would be.
func (s *Server) handleSetItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	item, ok := s.binding.Item(name)
	if !ok {
		writeNotFound(w, "item not found: "+name)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return
		}
		writeBadRequest(w, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeBadRequest(w, "request body is required")
		return
	}

	v := value.FromRaw(body)
	if err := item.SetValue(v); err != nil {
		s.logger.Warn("failed to apply value", "item", name, "error", err, "request_id", requestID(r))
		writeItemError(w, err)
		return
	}

	s.logger.Info("item set via API", "item", name, "value", v.String(), "request_id", requestID(r))
	writeItemState(w, http.StatusAccepted, name, v, item.Meta(), false)
}

func writeItemState(w http.ResponseWriter, status int, name string, v value.Value, meta *core.Meta, stale bool) {
	text, err := v.AsString()
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, status, ItemState{
		Name:  name,
		Value: text,
		Type:  v.TypeString(),
		Stale: stale,
		Meta:  meta,
	})
}
