package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/go-chi/chi/v5"
)

// FlagRequest is an asker's report of an incorrect response.
type FlagRequest struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	Reason    string `json:"reason"`
	SessionID string `json:"session_id"`
}

// FlagResponse acknowledges a flag with the new correction's id.
type FlagResponse struct {
	Message      string `json:"message"`
	CorrectionID int64  `json:"correction_id"`
}

// FlagCorrection creates a pending correction from an asker's flag.
func (h *Handler) FlagCorrection(w http.ResponseWriter, r *http.Request) {
	var req FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		Error(w, http.StatusBadRequest, "a reason is required to flag a response")
		return
	}

	correction := &domain.Correction{
		SessionID:        req.SessionID,
		StudentQuery:     req.Query,
		OriginalResponse: req.Response,
		Reason:           req.Reason,
		Status:           domain.CorrectionPending,
	}

	id, err := h.repo.CreateCorrection(r.Context(), correction)
	if err != nil {
		slog.Error("failed to create correction", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "failed to save flag")
		return
	}

	JSON(w, http.StatusOK, FlagResponse{
		Message:      "Thank you for the feedback! A reviewer will look at this response.",
		CorrectionID: id,
	})
}

// CorrectionDetails returns the full correction record, used by askers after
// a notification references a correction id.
func (h *Handler) CorrectionDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid correction id")
		return
	}

	correction, err := h.repo.GetCorrection(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "correction not found")
		return
	}
	if err != nil {
		slog.Error("failed to get correction", "error", err, "correction_id", id)
		Error(w, http.StatusInternalServerError, "failed to fetch correction")
		return
	}

	JSON(w, http.StatusOK, correction)
}
