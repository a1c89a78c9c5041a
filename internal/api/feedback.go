package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akozyreva/campusqa/internal/domain"
)

// FeedbackResponse acknowledges a recorded rating.
type FeedbackResponse struct {
	Message      string              `json:"message"`
	FeedbackType domain.FeedbackType `json:"feedback_type"`
}

// SubmitFeedback records a thumbs up/down rating. Duplicate submissions are
// accepted here; the client-side tracker is the idempotency layer.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var rec domain.FeedbackRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rec.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.SaveFeedback(r.Context(), rec); err != nil {
		slog.Error("failed to save feedback", "error", err, "session_id", rec.SessionID)
		Error(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}

	JSON(w, http.StatusOK, FeedbackResponse{
		Message:      "Thank you for your feedback!",
		FeedbackType: rec.FeedbackType,
	})
}
