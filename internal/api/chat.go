package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akozyreva/campusqa/internal/answer"
	"github.com/akozyreva/campusqa/internal/domain"
)

// ChatRequest is an asker's question plus a short conversation window.
type ChatRequest struct {
	Query               string               `json:"query"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history,omitempty"`
	SessionID           string               `json:"session_id,omitempty"`
}

// ChatResponse is the answering collaborator's reply.
type ChatResponse struct {
	Response           string   `json:"response"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// Chat forwards a question to the answering collaborator.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.answerer == nil {
		Error(w, http.StatusServiceUnavailable, "answering service is not configured")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		Error(w, http.StatusBadRequest, "query cannot be empty")
		return
	}

	resp, err := h.answerer.Answer(r.Context(), answer.Request{
		Query:               req.Query,
		ConversationHistory: req.ConversationHistory,
		SessionID:           req.SessionID,
	})
	if err != nil {
		slog.Error("answering service call failed", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusBadGateway, "failed to get an answer, please try again")
		return
	}

	JSON(w, http.StatusOK, ChatResponse{
		Response:           resp.Response,
		SuggestedQuestions: resp.SuggestedQuestions,
	})
}
