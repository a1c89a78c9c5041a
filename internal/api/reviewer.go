package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/akozyreva/campusqa/internal/auth"
	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// LoginRequest carries reviewer credentials. Username also accepts an email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	ReviewerName string `json:"reviewer_name"`
	Email        string `json:"email"`
}

// ReviewerLogin authenticates a reviewer and issues a bearer token.
func (h *Handler) ReviewerLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	reviewer, err := h.repo.GetReviewerByLogin(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusUnauthorized, "invalid username/email or password")
		return
	}
	if err != nil {
		slog.Error("failed to look up reviewer", "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(reviewer.PasswordHash), []byte(req.Password)) != nil {
		Error(w, http.StatusUnauthorized, "invalid username/email or password")
		return
	}

	token, err := h.tokens.Sign(reviewer.Email)
	if err != nil {
		slog.Error("failed to sign reviewer token", "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	JSON(w, http.StatusOK, LoginResponse{
		AccessToken:  token,
		ReviewerName: reviewer.Name,
		Email:        reviewer.Email,
	})
}

// PendingCorrections lists corrections awaiting review.
func (h *Handler) PendingCorrections(w http.ResponseWriter, r *http.Request) {
	pending, err := h.repo.PendingCorrections(r.Context())
	if err != nil {
		slog.Error("failed to list pending corrections", "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch pending corrections")
		return
	}

	JSON(w, http.StatusOK, pending)
}

// ReviewCorrection applies a reviewer's disposition to a pending correction
// and creates the session-addressed notification as a side effect. A second
// disposition for the same correction is rejected with 409: terminal states
// are immutable.
func (h *Handler) ReviewCorrection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid correction id")
		return
	}

	var d domain.Disposition
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := d.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	correction, err := h.repo.GetCorrection(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "correction not found")
		return
	}
	if err != nil {
		slog.Error("failed to get correction", "error", err, "correction_id", id)
		Error(w, http.StatusInternalServerError, "failed to review correction")
		return
	}

	reviewer := auth.SubjectFromContext(r.Context())
	err = h.repo.ReviewCorrection(r.Context(), id, d, reviewer, time.Now())
	if errors.Is(err, store.ErrAlreadyReviewed) {
		Error(w, http.StatusConflict, "correction has already been reviewed")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "correction not found")
		return
	}
	if err != nil {
		slog.Error("failed to review correction", "error", err, "correction_id", id)
		Error(w, http.StatusInternalServerError, "failed to review correction")
		return
	}

	if d.Action == domain.DispositionApprove {
		// Record the confirmed answer as ground truth for the answering
		// pipeline: the edited text if supplied, the original otherwise.
		answerText := correction.OriginalResponse
		if d.CorrectedResponse != "" {
			answerText = d.CorrectedResponse
		}
		fact := &domain.VerifiedFact{
			Question:   correction.StudentQuery,
			Answer:     answerText,
			VerifiedBy: reviewer,
		}
		if err := h.repo.AddVerifiedFact(r.Context(), fact); err != nil {
			slog.Warn("failed to store verified fact", "error", err, "correction_id", id)
		}
	}

	if correction.SessionID != "" {
		notification := buildReviewNotification(correction, d)
		if _, err := h.repo.CreateNotification(r.Context(), notification); err != nil {
			slog.Warn("failed to create review notification", "error", err, "correction_id", id)
		}
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Correction reviewed"})
}

// buildReviewNotification produces the asker-facing notification for a
// confirmed disposition.
func buildReviewNotification(c *domain.Correction, d domain.Disposition) *domain.Notification {
	correctionID := c.ID
	n := &domain.Notification{
		SessionID:    c.SessionID,
		CorrectionID: &correctionID,
	}

	query := truncate(c.StudentQuery, 80)
	switch {
	case d.Action == domain.DispositionReject:
		n.Title = "Flag Reviewed"
		n.Message = fmt.Sprintf("A reviewer has looked at your flag for: %q. The original response has been determined to be correct.", query)
	case d.CorrectedResponse != "":
		n.Title = "Response Corrected"
		n.Message = fmt.Sprintf("A reviewer has corrected the response to: %q", query)
	default:
		n.Title = "Response Verified"
		n.Message = fmt.Sprintf("A reviewer has verified the response to: %q", query)
	}
	return n
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
