package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akozyreva/campusqa/internal/domain"
	"github.com/google/uuid"
)

const (
	sessionIDKey     = "chat_session_id"
	historyKeyPrefix = "chat_messages_"
)

// GreetingContent is the synthesized first assistant message. A fresh or
// unrecoverable log always starts from it so the chat view never renders
// empty.
const GreetingContent = "Hello! I'm your campus assistant. Ask me about courses, " +
	"financial aid, international student services, housing and campus resources. " +
	"What would you like to know?"

// Greeting returns the deterministic initial message log.
func Greeting() []domain.ChatMessage {
	return []domain.ChatMessage{{
		Role:    domain.RoleAssistant,
		Content: GreetingContent,
	}}
}

// Store owns the persisted session identifier and message log.
type Store struct {
	storage Storage
}

// NewStore creates a session store on top of the given storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// SessionID returns the persisted session identifier, generating and
// persisting a new one first if none exists. Repeated calls without a Reset
// return the same identifier.
func (s *Store) SessionID() (string, error) {
	if id, ok := s.storage.Get(sessionIDKey); ok && id != "" {
		return id, nil
	}

	id := newSessionID()
	if err := s.storage.Set(sessionIDKey, id); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}
	return id, nil
}

// newSessionID synthesizes a unique identifier: creation timestamp plus a
// random suffix.
func newSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}

// LoadHistory returns the persisted message log for a session. A missing,
// empty or unparseable log falls back to the greeting; corruption is logged
// and never surfaced as an error.
func (s *Store) LoadHistory(sessionID string) []domain.ChatMessage {
	raw, ok := s.storage.Get(historyKeyPrefix + sessionID)
	if !ok || raw == "" {
		return Greeting()
	}

	var log []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		slog.Warn("failed to parse saved messages, falling back to greeting",
			"session_id", sessionID, "error", err)
		return Greeting()
	}
	if len(log) == 0 {
		return Greeting()
	}
	return log
}

// SaveHistory persists the full message log for a session. Called after
// every append.
func (s *Store) SaveHistory(sessionID string, log []domain.ChatMessage) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode message log: %w", err)
	}
	if err := s.storage.Set(historyKeyPrefix+sessionID, string(data)); err != nil {
		return fmt.Errorf("persist message log: %w", err)
	}
	return nil
}

// Reset discards the persisted identifier and its log. The next SessionID
// call allocates a fresh session. This is the only destructive operation.
func (s *Store) Reset() error {
	if id, ok := s.storage.Get(sessionIDKey); ok && id != "" {
		if err := s.storage.Delete(historyKeyPrefix + id); err != nil {
			return fmt.Errorf("clear message log: %w", err)
		}
	}
	if err := s.storage.Delete(sessionIDKey); err != nil {
		return fmt.Errorf("clear session id: %w", err)
	}
	return nil
}
