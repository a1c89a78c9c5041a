package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/akozyreva/campusqa/internal/domain"
)

func TestAskSendsHistoryAndSession(t *testing.T) {
	var got askRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(AskResult{Response: "Registration opens in April."})
	}))
	defer srv.Close()

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "When does registration open?"},
	}
	result, err := NewClient(srv.URL).Ask(context.Background(), "And for graduate students?", history, "session_1_abc")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if result.Response != "Registration opens in April." {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if got.Query != "And for graduate students?" || got.SessionID != "session_1_abc" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if len(got.ConversationHistory) != 1 {
		t.Fatalf("expected the history window to be forwarded, got %+v", got.ConversationHistory)
	}
}

func TestFlagReturnsCorrectionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/corrections/flag" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req flagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Reason != "The fee amount is outdated" {
			t.Errorf("unexpected reason: %q", req.Reason)
		}
		json.NewEncoder(w).Encode(flagResponse{CorrectionID: 17})
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).Flag(context.Background(),
		"How much is the lab fee?", "The lab fee is $40.", "The fee amount is outdated", "session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	if id != 17 {
		t.Fatalf("expected correction id 17, got %d", id)
	}
}

func TestFlagWithBlankReasonNeverReachesTheWire(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Flag(context.Background(), "q", "a", "   ", "session_1_abc")
	if err == nil {
		t.Fatal("expected a blank reason to be rejected")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network call, got %d", calls.Load())
	}
}

func TestBackendErrorSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Reason is required"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Flag(context.Background(), "q", "a", "too vague?", "session_1_abc")
	if err == nil || err.Error() != "Reason is required" {
		t.Fatalf("expected the backend message verbatim, got %v", err)
	}
}

func TestBackendErrorWithoutBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).MarkRead(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected a status fallback error, got %v", err)
	}
}

func TestNotificationsDecodesView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/session_1_abc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.NotificationList{
			Notifications: []domain.Notification{
				{ID: 5, Title: "Response Corrected", IsRead: false},
				{ID: 4, Title: "Flag Reviewed", IsRead: true},
			},
			UnreadCount: 1,
		})
	}))
	defer srv.Close()

	view, err := NewClient(srv.URL).Notifications(context.Background(), "session_1_abc")
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if len(view.Notifications) != 2 || view.UnreadCount != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestMarkReadAndMarkAllReadPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.MarkRead(context.Background(), 9); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if err := client.MarkAllRead(context.Background(), "session_1_abc"); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	want := []string{
		"POST /notifications/9/mark-read",
		"POST /notifications/session_1_abc/mark-all-read",
	}
	for i, w := range want {
		if i >= len(paths) || paths[i] != w {
			t.Fatalf("expected requests %v, got %v", want, paths)
		}
	}
}

func TestSubmitFeedbackValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SubmitFeedback(context.Background(), domain.FeedbackRecord{
		SessionID:    "session_1_abc",
		FeedbackType: "enthusiastic",
	})
	if err == nil {
		t.Fatal("expected an invalid feedback type to be rejected")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network call for invalid feedback, got %d", calls.Load())
	}
}
