package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
)

// ErrUnauthorized signals a missing or stale reviewer credential. Callers
// must discard the saved token and re-authenticate.
var ErrUnauthorized = errors.New("reviewer credential is missing or expired")

// HTTPClient implements Backend against the reviewer endpoints, sending the
// bearer credential on every call.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a reviewer API client with a bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Credentials are a reviewer's login inputs.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string `json:"access_token"`
	ReviewerName string `json:"reviewer_name"`
	Email        string `json:"email"`
}

// Login authenticates against the backend and returns a bearer session.
func Login(ctx context.Context, baseURL string, creds Credentials) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/reviewer/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backendError(resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &session, nil
}

// PendingCorrections fetches the reviewer's pending list.
func (c *HTTPClient) PendingCorrections(ctx context.Context) ([]domain.PendingCorrection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/reviewer/corrections/pending", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var pending []domain.PendingCorrection
	if err := c.do(req, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Review submits a disposition for one correction.
func (c *HTTPClient) Review(ctx context.Context, correctionID int64, d domain.Disposition) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode disposition: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/reviewer/corrections/%d/review", c.baseURL, correctionID),
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return backendError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func backendError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("backend returned status %d", resp.StatusCode)
}
