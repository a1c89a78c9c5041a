// Package api provides HTTP handlers for the CampusQA backend API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/akozyreva/campusqa/internal/answer"
	"github.com/akozyreva/campusqa/internal/auth"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/go-chi/chi/v5"
)

// Answerer is the answering collaborator boundary. The pipeline behind it
// is opaque; the handler only issues one request/response call.
type Answerer interface {
	Answer(ctx context.Context, req answer.Request) (*answer.Response, error)
}

// Handler serves the asker-facing and reviewer-facing endpoints.
type Handler struct {
	repo              store.Repository
	answerer          Answerer // nil when the answering service is not configured
	tokens            *auth.Manager
	notificationLimit int
}

// NewHandler creates a new Handler with its dependencies.
func NewHandler(repo store.Repository, answerer Answerer, tokens *auth.Manager, notificationLimit int) *Handler {
	return &Handler{
		repo:              repo,
		answerer:          answerer,
		tokens:            tokens,
		notificationLimit: notificationLimit,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Post("/corrections/flag", h.FlagCorrection)
	r.Get("/corrections/{id}", h.CorrectionDetails)
	r.Post("/feedback", h.SubmitFeedback)
	r.Get("/notifications/{id}", h.SessionNotifications)
	r.Post("/notifications/{id}/mark-read", h.MarkNotificationRead)
	r.Post("/notifications/{id}/mark-all-read", h.MarkAllNotificationsRead)

	r.Post("/reviewer/login", h.ReviewerLogin)
	r.Route("/reviewer/corrections", func(r chi.Router) {
		r.Use(h.tokens.Middleware)
		r.Get("/pending", h.PendingCorrections)
		r.Post("/{id}/review", h.ReviewCorrection)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
