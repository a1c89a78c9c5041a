// Package review implements the reviewer console: listing pending
// corrections and applying dispositions.
package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/akozyreva/campusqa/internal/domain"
)

// ItemState is the console's view state for one correction. Editing is
// local-only and never persisted; approved/rejected mirror the backend's
// terminal statuses after a confirmed disposition.
type ItemState string

const (
	StatePending  ItemState = "pending"
	StateEditing  ItemState = "editing"
	StateApproved ItemState = "approved"
	StateRejected ItemState = "rejected"
)

// Item is one pending correction plus its local view state.
type Item struct {
	domain.PendingCorrection
	State ItemState
	Draft string // edit buffer, preloaded with the original response
}

// Backend is the reviewer-side API surface the console drives.
type Backend interface {
	PendingCorrections(ctx context.Context) ([]domain.PendingCorrection, error)
	Review(ctx context.Context, correctionID int64, d domain.Disposition) error
}

// Console holds the reviewer's pending list and drives dispositions.
type Console struct {
	backend Backend

	mu    sync.Mutex
	items []*Item
}

// NewConsole creates a console over the given backend.
func NewConsole(backend Backend) *Console {
	return &Console{backend: backend}
}

// Refresh replaces the pending list with the backend's authoritative state.
// Local edit state does not survive a refresh.
func (c *Console) Refresh(ctx context.Context) error {
	pending, err := c.backend.PendingCorrections(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending corrections: %w", err)
	}

	items := make([]*Item, 0, len(pending))
	for _, p := range pending {
		items = append(items, &Item{PendingCorrection: p, State: StatePending})
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns a copy of the current list.
func (c *Console) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, *it)
	}
	return out
}

func (c *Console) find(correctionID int64) (*Item, error) {
	for _, it := range c.items {
		if it.ID == correctionID {
			return it, nil
		}
	}
	return nil, fmt.Errorf("correction %d is not in the pending list", correctionID)
}

// BeginEdit moves a pending item into local edit mode, preloading the draft
// with the original response text.
func (c *Console) BeginEdit(correctionID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, err := c.find(correctionID)
	if err != nil {
		return err
	}
	if it.State != StatePending {
		return fmt.Errorf("correction %d is not pending", correctionID)
	}
	it.State = StateEditing
	it.Draft = it.BotResponse
	return nil
}

// SetDraft replaces the edit buffer for an item in edit mode.
func (c *Console) SetDraft(correctionID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, err := c.find(correctionID)
	if err != nil {
		return err
	}
	if it.State != StateEditing {
		return fmt.Errorf("correction %d is not being edited", correctionID)
	}
	it.Draft = text
	return nil
}

// CancelEdit discards the draft and returns the item to pending. No backend
// call is made.
func (c *Console) CancelEdit(correctionID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, err := c.find(correctionID)
	if err != nil {
		return err
	}
	if it.State != StateEditing {
		return fmt.Errorf("correction %d is not being edited", correctionID)
	}
	it.State = StatePending
	it.Draft = ""
	return nil
}

// Approve confirms the original response as correct: disposition approve
// with no replacement text.
func (c *Console) Approve(ctx context.Context, correctionID int64) error {
	return c.dispose(ctx, correctionID, StatePending, domain.Disposition{
		Action: domain.DispositionApprove,
	})
}

// SubmitEdit approves with the draft as the corrected response.
func (c *Console) SubmitEdit(ctx context.Context, correctionID int64) error {
	c.mu.Lock()
	it, err := c.find(correctionID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if it.State != StateEditing {
		c.mu.Unlock()
		return fmt.Errorf("correction %d is not being edited", correctionID)
	}
	draft := it.Draft
	c.mu.Unlock()

	return c.dispose(ctx, correctionID, StateEditing, domain.Disposition{
		Action:            domain.DispositionApprove,
		CorrectedResponse: draft,
	})
}

// Reject marks the flag as unfounded: disposition reject, no text.
func (c *Console) Reject(ctx context.Context, correctionID int64) error {
	return c.dispose(ctx, correctionID, StatePending, domain.Disposition{
		Action: domain.DispositionReject,
	})
}

// dispose submits the disposition and, on confirmation, refetches the full
// pending list so it reflects authoritative server state. On failure the
// item stays in pending view state for the caller to retry.
func (c *Console) dispose(ctx context.Context, correctionID int64, from ItemState, d domain.Disposition) error {
	c.mu.Lock()
	it, err := c.find(correctionID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if it.State != from {
		c.mu.Unlock()
		return fmt.Errorf("correction %d is in state %s, expected %s", correctionID, it.State, from)
	}
	c.mu.Unlock()

	if err := c.backend.Review(ctx, correctionID, d); err != nil {
		c.mu.Lock()
		if it, findErr := c.find(correctionID); findErr == nil {
			it.State = StatePending
			it.Draft = ""
		}
		c.mu.Unlock()
		return fmt.Errorf("submit disposition: %w", err)
	}

	c.mu.Lock()
	if it, findErr := c.find(correctionID); findErr == nil {
		it.State = StateApproved
		if d.Action == domain.DispositionReject {
			it.State = StateRejected
		}
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}
