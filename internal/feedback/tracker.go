// Package feedback enforces at-most-one directional rating per message on
// the client side. The backend accepts duplicates; this tracker is the only
// idempotency layer, scoped to one in-memory session run.
package feedback

import (
	"strconv"
	"sync"

	"github.com/akozyreva/campusqa/internal/domain"
)

// MessageKey identifies a message for rating purposes: the server-assigned
// id when present, the message's log index otherwise. The explicit split
// avoids silent collisions between ids and indices.
type MessageKey struct {
	serverID    string
	index       int
	hasServerID bool
}

// ServerKey builds a key from a server-assigned message id.
func ServerKey(id string) MessageKey {
	return MessageKey{serverID: id, hasServerID: true}
}

// IndexKey builds a key from a message's position in the log. Index keys
// are only stable for the lifetime of the current session.
func IndexKey(index int) MessageKey {
	return MessageKey{index: index}
}

// KeyFor resolves the key for a message at the given log index.
func KeyFor(msg domain.ChatMessage, index int) MessageKey {
	if msg.ID != "" {
		return ServerKey(msg.ID)
	}
	return IndexKey(index)
}

// String renders the key for use as a wire message_id.
func (k MessageKey) String() string {
	if k.hasServerID {
		return k.serverID
	}
	return strconv.Itoa(k.index)
}

// Tracker records which messages already received a rating.
type Tracker struct {
	mu    sync.Mutex
	given map[MessageKey]domain.FeedbackType
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{given: make(map[MessageKey]domain.FeedbackType)}
}

// TryRecord records the rating for key if none exists yet. It returns the
// rating now associated with the key and whether this call recorded it; a
// second call never mutates the first rating, whatever its direction.
func (t *Tracker) TryRecord(key MessageKey, ft domain.FeedbackType) (domain.FeedbackType, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.given[key]; ok {
		return existing, false
	}
	t.given[key] = ft
	return ft, true
}

// Recorded returns the rating for key, if any.
func (t *Tracker) Recorded(key MessageKey) (domain.FeedbackType, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ft, ok := t.given[key]
	return ft, ok
}
