// Package handler contains the HTTP request handlers for the notes API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, JSON body, caller identity)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, JSON body)
//
// Handlers hold no business rules; they translate between HTTP and services.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/model"
)

// NoteService is the subset of *service.NoteService the handler uses.
type NoteService interface {
	Create(ctx context.Context, caller, title, description, userID string) (*model.Note, error)
	ListByOwner(ctx context.Context, caller, userID string) ([]model.Note, error)
	Delete(ctx context.Context, caller, id string) error
}

// NoteHandler manages note create, list and delete.
//
// The caller identity comes from the auth middleware: set when the request
// carried a valid bearer token, empty otherwise. The service decides what
// an empty caller may do.
type NoteHandler struct {
	notes  NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		logger: logger,
	}
}

type createNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

// HandleCreate stores a new note.
//
// HTTP: POST /api/notes
// REQUEST BODY: {"title":"T","description":"D","userId":"<account id>"}
// RESPONSE: 201 Created with the stored note
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	caller, _ := auth.UserIDFromContext(r.Context())
	note, err := h.notes.Create(r.Context(), caller, req.Title, req.Description, req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// HandleList returns one account's notes, newest first.
//
// HTTP: GET /api/notes/{userId}
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	caller, _ := auth.UserIDFromContext(r.Context())
	notes, err := h.notes.ListByOwner(r.Context(), caller, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleDelete removes a note. Unknown IDs still get 200.
//
// HTTP: DELETE /api/notes/{id}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, _ := auth.UserIDFromContext(r.Context())
	if err := h.notes.Delete(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note deleted"})
}
