package domain

import "fmt"

// FeedbackType is a directional rating on an assistant message.
type FeedbackType string

const (
	FeedbackThumbsUp   FeedbackType = "thumbs_up"
	FeedbackThumbsDown FeedbackType = "thumbs_down"
)

// Valid reports whether the feedback type is one of the known directions.
func (t FeedbackType) Valid() bool {
	return t == FeedbackThumbsUp || t == FeedbackThumbsDown
}

// FeedbackRecord captures a single rating, write-once per
// (session_id, message_id) from the client's point of view.
type FeedbackRecord struct {
	Query        string       `json:"query"`
	Response     string       `json:"response"`
	FeedbackType FeedbackType `json:"feedback_type"`
	SessionID    string       `json:"session_id"`
	MessageID    string       `json:"message_id"`
}

// Validate checks the record before it is sent or stored.
func (r FeedbackRecord) Validate() error {
	if !r.FeedbackType.Valid() {
		return fmt.Errorf("invalid feedback type %q", r.FeedbackType)
	}
	if r.SessionID == "" {
		return fmt.Errorf("feedback requires a session id")
	}
	return nil
}
