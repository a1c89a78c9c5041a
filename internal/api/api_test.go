package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akozyreva/campusqa/internal/answer"
	"github.com/akozyreva/campusqa/internal/auth"
	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/akozyreva/campusqa/internal/gateway"
	"github.com/akozyreva/campusqa/internal/review"
	"github.com/akozyreva/campusqa/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeAnswerer struct {
	response string
	err      error
	lastReq  answer.Request
}

func (f *fakeAnswerer) Answer(ctx context.Context, req answer.Request) (*answer.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &answer.Response{Response: f.response}, nil
}

func newTestServer(t *testing.T, answerer Answerer) (*httptest.Server, store.Repository) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "campusqa.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	tokens, err := auth.NewManager([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	r := chi.NewRouter()
	NewHandler(repo, answerer, tokens, 50).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		repo.Close()
	})
	return srv, repo
}

func addTestReviewer(t *testing.T, repo store.Repository) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	err = repo.CreateReviewer(context.Background(), &domain.Reviewer{
		Name:         "Anna Kozyreva",
		Username:     "akozyreva",
		Email:        "anna@example.edu",
		PasswordHash: string(hash),
	})
	if err != nil {
		t.Fatalf("CreateReviewer failed: %v", err)
	}
}

func reviewerClient(t *testing.T, baseURL string) *review.HTTPClient {
	t.Helper()
	session, err := review.Login(context.Background(), baseURL, review.Credentials{
		Username: "akozyreva",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return review.NewHTTPClient(baseURL, session.AccessToken)
}

func TestFlagReviewCorrectNotifyRoundTrip(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)
	ctx := context.Background()

	asker := gateway.NewClient(srv.URL)
	correctionID, err := asker.Flag(ctx,
		"When is the add/drop deadline?",
		"The add/drop deadline is the end of week three.",
		"It is actually the end of week two",
		"session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}
	if correctionID == 0 {
		t.Fatal("expected a correction id")
	}

	reviewer := reviewerClient(t, srv.URL)
	pending, err := reviewer.PendingCorrections(ctx)
	if err != nil {
		t.Fatalf("PendingCorrections failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != correctionID {
		t.Fatalf("expected the flag in the pending queue, got %+v", pending)
	}
	if pending[0].Query != "When is the add/drop deadline?" || pending[0].Reason != "It is actually the end of week two" {
		t.Fatalf("unexpected pending summary: %+v", pending[0])
	}

	err = reviewer.Review(ctx, correctionID, domain.Disposition{
		Action:            domain.DispositionApprove,
		CorrectedResponse: "The add/drop deadline is the end of week two.",
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	view, err := asker.Notifications(ctx, "session_1_abc")
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if len(view.Notifications) != 1 || view.UnreadCount != 1 {
		t.Fatalf("expected one unread notification, got %+v", view)
	}
	n := view.Notifications[0]
	if n.Title != "Response Corrected" {
		t.Fatalf("expected a corrected-response notification, got %q", n.Title)
	}
	if n.CorrectionID == nil || *n.CorrectionID != correctionID {
		t.Fatalf("expected the notification to reference correction %d, got %+v", correctionID, n.CorrectionID)
	}

	c, err := asker.CorrectionDetails(ctx, correctionID)
	if err != nil {
		t.Fatalf("CorrectionDetails failed: %v", err)
	}
	if c.Status != domain.CorrectionApproved {
		t.Fatalf("expected approved, got %s", c.Status)
	}
	if c.CorrectedResponse == nil || *c.CorrectedResponse != "The add/drop deadline is the end of week two." {
		t.Fatalf("expected the corrected text, got %+v", c.CorrectedResponse)
	}
	if c.ReviewedBy == nil || *c.ReviewedBy != "anna@example.edu" {
		t.Fatalf("expected review provenance from the token subject, got %+v", c.ReviewedBy)
	}

	if err := asker.MarkRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	view, _ = asker.Notifications(ctx, "session_1_abc")
	if view.UnreadCount != 0 || !view.Notifications[0].IsRead {
		t.Fatalf("expected the notification acknowledged, got %+v", view)
	}
}

func TestRejectProducesFlagReviewedNotification(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)
	ctx := context.Background()

	asker := gateway.NewClient(srv.URL)
	correctionID, err := asker.Flag(ctx,
		"Does the shuttle run on weekends?",
		"The shuttle runs daily including weekends.",
		"I waited an hour on Sunday",
		"session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}

	reviewer := reviewerClient(t, srv.URL)
	err = reviewer.Review(ctx, correctionID, domain.Disposition{Action: domain.DispositionReject})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	view, err := asker.Notifications(ctx, "session_1_abc")
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if len(view.Notifications) != 1 || view.Notifications[0].Title != "Flag Reviewed" {
		t.Fatalf("expected a flag-reviewed notification, got %+v", view)
	}

	c, _ := asker.CorrectionDetails(ctx, correctionID)
	if c.Status != domain.CorrectionRejected || c.CorrectedResponse != nil {
		t.Fatalf("expected a plain rejection, got %+v", c)
	}

	// The pending queue no longer offers it.
	pending, _ := reviewer.PendingCorrections(ctx)
	if len(pending) != 0 {
		t.Fatalf("expected an empty pending queue, got %+v", pending)
	}
}

func TestApproveWithoutEditProducesVerifiedNotification(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)
	ctx := context.Background()

	asker := gateway.NewClient(srv.URL)
	correctionID, err := asker.Flag(ctx,
		"Is the gym open during break?",
		"The gym stays open during academic breaks.",
		"Not sure this is right",
		"session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}

	reviewer := reviewerClient(t, srv.URL)
	if err := reviewer.Review(ctx, correctionID, domain.Disposition{Action: domain.DispositionApprove}); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	view, _ := asker.Notifications(ctx, "session_1_abc")
	if len(view.Notifications) != 1 || view.Notifications[0].Title != "Response Verified" {
		t.Fatalf("expected a verified notification, got %+v", view)
	}

	c, _ := asker.CorrectionDetails(ctx, correctionID)
	if c.Status != domain.CorrectionApproved || c.CorrectedResponse != nil {
		t.Fatalf("expected approval without replacement text, got %+v", c)
	}
}

func TestSecondDispositionConflicts(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)
	ctx := context.Background()

	asker := gateway.NewClient(srv.URL)
	correctionID, err := asker.Flag(ctx, "q", "a", "wrong", "session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}

	reviewer := reviewerClient(t, srv.URL)
	if err := reviewer.Review(ctx, correctionID, domain.Disposition{Action: domain.DispositionReject}); err != nil {
		t.Fatalf("first review failed: %v", err)
	}

	err = reviewer.Review(ctx, correctionID, domain.Disposition{
		Action:            domain.DispositionApprove,
		CorrectedResponse: "late correction",
	})
	if err == nil || !strings.Contains(err.Error(), "already been reviewed") {
		t.Fatalf("expected a conflict for the second disposition, got %v", err)
	}

	// Exactly one notification came out of the race.
	view, _ := asker.Notifications(ctx, "session_1_abc")
	if len(view.Notifications) != 1 {
		t.Fatalf("expected a single notification, got %+v", view)
	}
}

func TestFlagRequiresReason(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/corrections/flag", "application/json",
		strings.NewReader(`{"query":"q","response":"a","reason":"  ","session_id":"session_1_abc"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank reason, got %d", resp.StatusCode)
	}
}

func TestReviewerEndpointsRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/reviewer/corrections/pending")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}

	client := review.NewHTTPClient(srv.URL, "not-a-jwt")
	if _, err := client.PendingCorrections(context.Background()); !errors.Is(err, review.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a malformed token, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)

	_, err := review.Login(context.Background(), srv.URL, review.Credentials{
		Username: "akozyreva",
		Password: "wrong",
	})
	if !errors.Is(err, review.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestChatUnavailableWithoutAnswerer(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, err := gateway.NewClient(srv.URL).Ask(context.Background(), "hello", nil, "session_1_abc")
	if err == nil {
		t.Fatal("expected chat to be unavailable without an answering service")
	}
}

func TestChatForwardsQuestionAndHistory(t *testing.T) {
	answerer := &fakeAnswerer{response: "The library opens at 8am."}
	srv, _ := newTestServer(t, answerer)

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Where is the library?"},
		{Role: domain.RoleAssistant, Content: "The library is on the main quad."},
	}
	result, err := gateway.NewClient(srv.URL).Ask(context.Background(),
		"When does it open?", history, "session_1_abc")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if result.Response != "The library opens at 8am." {
		t.Fatalf("unexpected answer: %q", result.Response)
	}
	if answerer.lastReq.Query != "When does it open?" || len(answerer.lastReq.ConversationHistory) != 2 {
		t.Fatalf("expected the question and history to be forwarded, got %+v", answerer.lastReq)
	}
}

func TestChatUpstreamFailureIsBadGateway(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnswerer{err: errors.New("pipeline down")})

	resp, err := http.Post(srv.URL+"/chat", "application/json",
		strings.NewReader(`{"query":"hello","session_id":"session_1_abc"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for an upstream failure, got %d", resp.StatusCode)
	}
}

func TestFeedbackEndpointAcceptsRatings(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := domain.FeedbackRecord{
		Query:        "When is the career fair?",
		Response:     "The career fair is in October.",
		FeedbackType: domain.FeedbackThumbsUp,
		SessionID:    "session_1_abc",
		MessageID:    "42",
	}
	client := gateway.NewClient(srv.URL)
	if err := client.SubmitFeedback(context.Background(), rec); err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}
	// The backend takes duplicates as-is; suppression is the client's job.
	if err := client.SubmitFeedback(context.Background(), rec); err != nil {
		t.Fatalf("duplicate SubmitFeedback failed: %v", err)
	}
}

func TestNotificationTitleTruncatesLongQueries(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	addTestReviewer(t, repo)
	ctx := context.Background()

	longQuery := strings.Repeat("why ", 40) // well past the 80 rune cut
	asker := gateway.NewClient(srv.URL)
	correctionID, err := asker.Flag(ctx, longQuery, "a", "wrong", "session_1_abc")
	if err != nil {
		t.Fatalf("Flag failed: %v", err)
	}

	reviewer := reviewerClient(t, srv.URL)
	if err := reviewer.Review(ctx, correctionID, domain.Disposition{Action: domain.DispositionApprove}); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	view, _ := asker.Notifications(ctx, "session_1_abc")
	if len(view.Notifications) != 1 {
		t.Fatalf("expected one notification, got %+v", view)
	}
	msg := view.Notifications[0].Message
	if !strings.Contains(msg, "...") {
		t.Fatalf("expected the query to be truncated in %q", msg)
	}
	if strings.Contains(msg, longQuery) {
		t.Fatalf("expected the full query to be cut, got %q", msg)
	}
}
