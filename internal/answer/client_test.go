package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akozyreva/campusqa/internal/domain"
)

func TestAnswerRoundTrip(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/answer" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			Response:           "The bookstore closes at 6pm.",
			SuggestedQuestions: []string{"Is it open on weekends?"},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Answer(context.Background(), Request{
		Query:     "When does the bookstore close?",
		SessionID: "session_1_abc",
		ConversationHistory: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "Where is the bookstore?"},
		},
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if resp.Response != "The bookstore closes at 6pm." || len(resp.SuggestedQuestions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.Query != "When does the bookstore close?" || len(got.ConversationHistory) != 1 {
		t.Fatalf("unexpected forwarded request: %+v", got)
	}
}

func TestAnswerSurfacesUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Answer(context.Background(), Request{Query: "hello"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected the upstream status in the error, got %v", err)
	}
}
