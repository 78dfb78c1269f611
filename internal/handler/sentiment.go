package handler

import (
	"log/slog"
	"net/http"
)

type scoreRequest struct {
	Text string `json:"text"`
}

// HandleScore previews the score and label text would get, without saving.
//
// HTTP: POST /api/sentiment
// BODY: {"text": "..."}
func (h *JournalHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid sentiment request body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if err := validateText(req.Text); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.journal.Score(req.Text))
}
