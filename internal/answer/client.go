// Package answer provides the client for the answering collaborator, an
// opaque upstream service reached through a single request/response call.
// The retrieval and generation pipeline behind it is not this repository's
// concern.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
)

// Request is the question forwarded to the answering collaborator, together
// with a short window of conversation context.
type Request struct {
	Query               string               `json:"query"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history,omitempty"`
	SessionID           string               `json:"session_id,omitempty"`
}

// Response is the collaborator's answer.
type Response struct {
	Response           string   `json:"response"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// Client calls the answering collaborator over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an answering collaborator client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Answer submits the query and waits for the collaborator's response.
func (c *Client) Answer(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode answer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build answer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call answering service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("answering service returned %d: %s", resp.StatusCode, string(data))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode answer response: %w", err)
	}
	return &out, nil
}
