package models

// MessageRole identifies the author of a conversation entry.
type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleBot  MessageRole = "bot"
)

// Message is one entry in the session's conversation log. The log is
// append-only: entries are never edited or removed once appended.
type Message struct {
	// ID is unique within the session and strictly increasing, so clients
	// can use it as a stable ordering and reconciliation key.
	ID int64 `json:"id"`

	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}
