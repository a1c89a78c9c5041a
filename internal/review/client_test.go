package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akozyreva/campusqa/internal/domain"
)

func TestLoginReturnsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reviewer/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds.Username != "akozyreva" {
			t.Errorf("unexpected username: %q", creds.Username)
		}
		json.NewEncoder(w).Encode(Session{
			AccessToken:  "token-123",
			ReviewerName: "Anna Kozyreva",
			Email:        "anna@example.edu",
		})
	}))
	defer srv.Close()

	session, err := Login(context.Background(), srv.URL, Credentials{Username: "akozyreva", Password: "secret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.AccessToken != "token-123" || session.ReviewerName != "Anna Kozyreva" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, Credentials{Username: "akozyreva", Password: "wrong"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		json.NewEncoder(w).Encode([]domain.PendingCorrection{})
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "token-123").PendingCorrections(context.Background()); err != nil {
		t.Fatalf("PendingCorrections failed: %v", err)
	}
}

func TestStaleTokenMapsToErrUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "expired")
	if _, err := client.PendingCorrections(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized from pending list, got %v", err)
	}
	err := client.Review(context.Background(), 1, domain.Disposition{Action: domain.DispositionApprove})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized from review, got %v", err)
	}
}

func TestReviewSurfacesConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Correction has already been reviewed"})
	}))
	defer srv.Close()

	err := NewHTTPClient(srv.URL, "token-123").Review(context.Background(), 1,
		domain.Disposition{Action: domain.DispositionReject})
	if err == nil || err.Error() != "Correction has already been reviewed" {
		t.Fatalf("expected the backend conflict message, got %v", err)
	}
}
