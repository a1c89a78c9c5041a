package domain

import "time"

// Reviewer is an authenticated role that can inspect and dispose of
// flagged corrections.
type Reviewer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// VerifiedFact is a question/answer pair confirmed by a reviewer during an
// approval, kept as ground truth for the answering pipeline.
type VerifiedFact struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	VerifiedBy string    `json:"verified_by"`
	CreatedAt  time.Time `json:"created_at"`
}
