// Package gateway is the asker-side HTTP client for the backend
// collaborator: chat, flagging, correction details, feedback and
// notifications. It is pure request/response and keeps no local state.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
)

// Client talks to the backend collaborator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// AskResult is the answering collaborator's reply to one question.
type AskResult struct {
	Response           string   `json:"response"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

type askRequest struct {
	Query               string               `json:"query"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history,omitempty"`
	SessionID           string               `json:"session_id,omitempty"`
}

// Ask submits a question with a short conversation window.
func (c *Client) Ask(ctx context.Context, query string, history []domain.ChatMessage, sessionID string) (*AskResult, error) {
	var out AskResult
	err := c.postJSON(ctx, "/chat", askRequest{
		Query:               query,
		ConversationHistory: history,
		SessionID:           sessionID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type flagRequest struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	Reason    string `json:"reason"`
	SessionID string `json:"session_id"`
}

type flagResponse struct {
	CorrectionID int64 `json:"correction_id"`
}

// Flag reports an incorrect response and returns the backend-assigned
// correction id. An empty reason is rejected before any network call.
func (c *Client) Flag(ctx context.Context, query, response, reason, sessionID string) (int64, error) {
	if strings.TrimSpace(reason) == "" {
		return 0, fmt.Errorf("a reason is required to flag a response")
	}

	var out flagResponse
	err := c.postJSON(ctx, "/corrections/flag", flagRequest{
		Query:     query,
		Response:  response,
		Reason:    reason,
		SessionID: sessionID,
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.CorrectionID, nil
}

// CorrectionDetails fetches the full correction record for display.
func (c *Client) CorrectionDetails(ctx context.Context, correctionID int64) (*domain.Correction, error) {
	var out domain.Correction
	if err := c.getJSON(ctx, fmt.Sprintf("/corrections/%d", correctionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitFeedback sends a thumbs up/down rating.
func (c *Client) SubmitFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return c.postJSON(ctx, "/feedback", rec, nil)
}

// Notifications fetches the session's notification view and unread count.
func (c *Client) Notifications(ctx context.Context, sessionID string) (*domain.NotificationList, error) {
	var out domain.NotificationList
	if err := c.getJSON(ctx, "/notifications/"+sessionID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead acknowledges one notification.
func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/notifications/%d/mark-read", notificationID), nil, nil)
}

// MarkAllRead acknowledges every notification for the session.
func (c *Client) MarkAllRead(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/notifications/"+sessionID+"/mark-all-read", nil, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse surfaces the backend's error message verbatim when it
// sent one, for inline display to the user.
func errorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("backend returned status %d", resp.StatusCode)
}
