package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/store"
)

const (
	defaultNotesLimit = 20
	maxNotesLimit     = 100
	maxNoteTitleLen   = 200
	maxNoteContentLen = 10000
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoteResponse(note *store.Note) noteResponse {
	return noteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func validateNote(w http.ResponseWriter, req noteRequest) bool {
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "fail", Message: "title is required"})
		return false
	}
	if len(req.Title) > maxNoteTitleLen || len(req.Content) > maxNoteContentLen {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "fail", Message: "note is too large"})
		return false
	}
	return true
}

func (a *API) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateNote(w, req) {
		return
	}

	note, err := a.notes.CreateNote(r.Context(), &store.Note{
		ID:        uuid.New().String(),
		AccountID: accountIDFrom(r.Context()),
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (a *API) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit := defaultNotesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "fail", Message: "limit is invalid"})
			return
		}
		limit = min(parsed, maxNotesLimit)
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "fail", Message: "offset is invalid"})
			return
		}
		offset = parsed
	}

	notes, err := a.notes.ListNotes(r.Context(), accountIDFrom(r.Context()), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, toNoteResponse(note))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out})
}

func (a *API) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := a.notes.GetNote(r.Context(), accountIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (a *API) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateNote(w, req) {
		return
	}

	note, err := a.notes.UpdateNote(r.Context(), &store.Note{
		ID:        r.PathValue("id"),
		AccountID: accountIDFrom(r.Context()),
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (a *API) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := a.notes.DeleteNote(r.Context(), accountIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
