// Package api exposes the board engine over HTTP for the presentation
// layer. Rendering and page composition live elsewhere; this surface only
// moves notes in and out.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/edwardcox/sticky-idea-pad/internal/board"
	"github.com/edwardcox/sticky-idea-pad/internal/notes"
	"github.com/edwardcox/sticky-idea-pad/internal/obs"
)

// Handler wraps the board engine and provides HTTP handlers.
type Handler struct {
	engine *board.Engine
}

// NewHandler creates an API handler over the given engine.
func NewHandler(engine *board.Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes registers all board API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /notes", h.ListNotes)
	mux.HandleFunc("GET /notes/{id}", h.GetNote)
	mux.HandleFunc("GET /notes/{id}/html", h.RenderNote)
	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("PATCH /notes/{id}", h.UpdateNote)
	mux.HandleFunc("POST /notes/{id}/priority", h.CyclePriority)
	mux.HandleFunc("DELETE /notes/{id}", h.DeleteNote)
}

// BoardResponse is the collection payload plus the readiness signal the
// presentation layer keys off.
type BoardResponse struct {
	Notes     []notes.Note `json:"notes"`
	IsLoading bool         `json:"is_loading"`
}

// ListNotes handles GET /notes - returns the in-memory collection.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BoardResponse{
		Notes:     h.engine.Notes(),
		IsLoading: h.engine.IsLoading(),
	})
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.engine.Note(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// RenderNote handles GET /notes/{id}/html - returns the note content's
// inline markup rendered to sanitized HTML.
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.engine.Note(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(notes.RenderContentHTML(note.Content)))
}

// CreateNote handles POST /notes - adds a note to the board. The engine
// applies the optimistic in-memory change regardless of storage health, so
// this always succeeds for valid input.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var params notes.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if params.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	note := h.engine.AddNote(params)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PATCH /notes/{id} - merges a partial update.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var params notes.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	note, ok := h.engine.UpdateNote(id, params)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CyclePriority handles POST /notes/{id}/priority - advances the priority
// through normal, action, urgent.
func (h *Handler) CyclePriority(w http.ResponseWriter, r *http.Request) {
	note, ok := h.engine.CyclePriority(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}. Deleting an unknown id is a
// no-op and still returns 204: the in-memory collection is the source of
// truth for presence.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	h.engine.DeleteNote(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// WithRequestID tags every request with a correlation id for logging.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := obs.WithCorrelation(r.Context(), obs.Correlation{RequestID: obs.NewRequestID()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		obs.Pkg("api").Warn("failed to encode response", "err", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
