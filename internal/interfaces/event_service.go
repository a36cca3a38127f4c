package interfaces

// SessionEvent is a state-change notification pushed to connected clients.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
}

// Session event types.
const (
	EventMessageAppended = "message_appended"
	EventDocumentMerged  = "document_merged"
	EventDraftPrepared   = "draft_prepared"
	EventDraftDiscarded  = "draft_discarded"
	EventBusyChanged     = "busy_changed"
)

// EventPublisher broadcasts session events to subscribed clients. A nil
// publisher is valid; the conversation layer treats publishing as
// best-effort.
type EventPublisher interface {
	Publish(event SessionEvent)
}
