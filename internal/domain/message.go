package domain

// Message roles in a chat log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a session's ordered message log. ID is set
// only on assistant messages that can receive feedback or be flagged; when
// absent the message's log index serves as its identity for the lifetime
// of the session.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	ID      string `json:"id,omitempty"`
}
