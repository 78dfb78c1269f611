package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/auth"
	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/service"
)

// MaxTextLength is the longest entry the API accepts, in characters.
const MaxTextLength = 300

// JournalHandler serves /api/journal and /api/sentiment. Every route sits
// behind auth.RequireAuth; the owner always comes from the token, never from
// the request body.
type JournalHandler struct {
	journal *service.JournalService
	logger  *slog.Logger
}

func NewJournalHandler(journal *service.JournalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, logger: logger}
}

// Routes mounts the journal endpoints. Static paths are registered before
// {id} so "calendar" and "trends" are never read as ids.
func (h *JournalHandler) Routes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/calendar", h.HandleCalendar)
	r.Get("/trends", h.HandleTrends)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
}

type entryRequest struct {
	Text         string     `json:"text"`
	SelectedMood model.Mood `json:"selectedMood"`
}

// validateText is the edge bound on entry text. The service stores
// whatever it is given.
func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperror.ValidationFailed("text", "text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("text must be %d characters or less", MaxTextLength))
	}
	return nil
}

// owner returns the authenticated user ID, or "" which the service rejects
// as Unauthorized.
func owner(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func (h *JournalHandler) decodeEntry(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid journal request body", slog.String("error", err.Error()))
		writeError(w, err)
		return req, false
	}
	if err := validateText(req.Text); err != nil {
		writeError(w, err)
		return req, false
	}
	return req, true
}

// HandleCreate scores and saves a new entry.
//
// HTTP: POST /api/journal
// BODY: {"text": "...", "selectedMood": "happy|neutral|sad"}
func (h *JournalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.Create(r.Context(), owner(r), req.Text, req.SelectedMood)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Journal saved.", Entry: entry})
}

// HandleList returns the caller's entries, newest first. With ?date=
// (YYYY-MM-DD) only entries from that UTC day are returned.
func (h *JournalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		entries []model.JournalEntry
		err     error
	)
	if r.URL.Query().Has("date") {
		entries, err = h.journal.EntriesOn(r.Context(), owner(r), r.URL.Query().Get("date"))
	} else {
		entries, err = h.journal.List(r.Context(), owner(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *JournalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journal.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleUpdate replaces text and mood and rescores.
//
// HTTP: PUT /api/journal/{id}
func (h *JournalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.Update(r.Context(), owner(r), chi.URLParam(r, "id"), req.Text, req.SelectedMood)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Journal updated.", Entry: entry})
}

func (h *JournalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Entry deleted"})
}

// HandleCalendar returns one heatmap cell per UTC day with entries.
func (h *JournalHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	cells, err := h.journal.Calendar(r.Context(), owner(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cells)
}

// HandleTrends returns per-day label counts for the trend chart.
func (h *JournalHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	series, err := h.journal.Trends(r.Context(), owner(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
