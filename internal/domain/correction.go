// Package domain contains core domain types for the CampusQA application.
package domain

import (
	"fmt"
	"time"
)

// CorrectionStatus is the review state of a flagged response.
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// Correction records a disputed exchange and its eventual disposition.
// Status only ever moves pending -> approved or pending -> rejected; once
// terminal it is immutable. CorrectedResponse is set only when a reviewer
// supplies replacement text during approval; approval without text means
// the original response was confirmed correct.
type Correction struct {
	ID                int64            `json:"id"`
	SessionID         string           `json:"session_id"`
	StudentQuery      string           `json:"student_query"`
	OriginalResponse  string           `json:"original_response"`
	Reason            string           `json:"reason"`
	Status            CorrectionStatus `json:"status"`
	CorrectedResponse *string          `json:"corrected_response,omitempty"`
	ReviewedBy        *string          `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Terminal reports whether the correction has reached a final state.
func (c *Correction) Terminal() bool {
	return c.Status != CorrectionPending
}

// DispositionAction is a reviewer's terminal decision kind.
type DispositionAction string

const (
	DispositionApprove DispositionAction = "approve"
	DispositionReject  DispositionAction = "reject"
)

// Disposition is a reviewer's decision on a pending correction. All review
// paths (approve as-is, approve with edit, reject) collapse into this one
// request shape; CorrectedResponse is only meaningful for approvals.
type Disposition struct {
	Action            DispositionAction `json:"action"`
	CorrectedResponse string            `json:"corrected_response,omitempty"`
}

// Validate checks that the disposition is well formed.
func (d Disposition) Validate() error {
	switch d.Action {
	case DispositionApprove:
		return nil
	case DispositionReject:
		if d.CorrectedResponse != "" {
			return fmt.Errorf("reject disposition cannot carry corrected text")
		}
		return nil
	default:
		return fmt.Errorf("invalid disposition action %q", d.Action)
	}
}

// TerminalStatus returns the correction status the disposition leads to.
func (d Disposition) TerminalStatus() CorrectionStatus {
	if d.Action == DispositionApprove {
		return CorrectionApproved
	}
	return CorrectionRejected
}

// PendingCorrection is the reviewer-facing summary of an unreviewed flag.
type PendingCorrection struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query"`
	BotResponse string    `json:"botResponse"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}
