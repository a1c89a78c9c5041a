// Package notify implements the asker-side notification poller: a
// cancellable repeating fetch with an explicit in-flight guard, standing in
// for push delivery.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
)

// DefaultInterval is the reference polling cadence.
const DefaultInterval = 30 * time.Second

// Source is the backend surface the poller consumes.
type Source interface {
	Notifications(ctx context.Context, sessionID string) (*domain.NotificationList, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context, sessionID string) error
}

// Poller periodically fetches a session's notification view. Fetches are
// serialized: a timer tick that arrives while a fetch is in flight is
// skipped, so responses can never clobber each other out of order.
type Poller struct {
	source    Source
	sessionID string
	interval  time.Duration

	fetchMu sync.Mutex // in-flight guard; held for the duration of one fetch

	mu       sync.Mutex
	view     domain.NotificationList
	onUpdate func(domain.NotificationList)
}

// NewPoller creates a poller for one session. An interval <= 0 falls back
// to DefaultInterval.
func NewPoller(source Source, sessionID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:    source,
		sessionID: sessionID,
		interval:  interval,
	}
}

// OnUpdate registers a callback invoked with each replaced view. Must be
// set before Run.
func (p *Poller) OnUpdate(fn func(domain.NotificationList)) {
	p.onUpdate = fn
}

// Run fetches immediately, then on every tick until ctx is cancelled.
// Cancelling ctx stops the timer; no periodic work leaks past it.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll attempts one fetch. It returns false if a fetch was already in
// flight and the attempt was skipped.
func (p *Poller) Poll(ctx context.Context) bool {
	if !p.fetchMu.TryLock() {
		return false
	}
	defer p.fetchMu.Unlock()
	p.fetchLocked(ctx)
	return true
}

// refresh waits for any in-flight fetch to finish and then fetches. Used
// after mutations to reconcile with authoritative backend state.
func (p *Poller) refresh(ctx context.Context) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	p.fetchLocked(ctx)
}

func (p *Poller) fetchLocked(ctx context.Context) {
	list, err := p.source.Notifications(ctx, p.sessionID)
	if err != nil {
		// Polling is best-effort; the next tick retries.
		slog.Warn("notification poll failed", "session_id", p.sessionID, "error", err)
		return
	}

	p.mu.Lock()
	p.view = *list
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(*list)
	}
}

// Snapshot returns the current notification view.
func (p *Poller) Snapshot() domain.NotificationList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// MarkRead acknowledges one notification, then forces a refetch so the
// local view reflects the backend's authoritative read state. No optimistic
// local mutation happens, so a failed write cannot cause drift.
func (p *Poller) MarkRead(ctx context.Context, notificationID int64) error {
	err := p.source.MarkRead(ctx, notificationID)
	p.refresh(ctx)
	return err
}

// MarkAllRead acknowledges every notification for the session, then forces
// a refetch.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	err := p.source.MarkAllRead(ctx, p.sessionID)
	p.refresh(ctx)
	return err
}
