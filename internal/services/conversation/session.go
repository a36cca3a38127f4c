package conversation

import (
	"sync"
	"time"

	"github.com/escriba/minuta/internal/models"
)

// Session is the per-user conversation context: the append-only message log,
// the extracted documents, the pending instruction queue, and the draft once
// prepared. All state is in-memory and dies with the session.
type Session struct {
	ID string

	mu         sync.Mutex
	busy       bool
	messages   []models.Message
	documents  models.DocumentSet
	pending    []models.Instruction
	draft      models.Draft
	lastMsgID  int64
	lastActive time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:         id,
		documents:  make(models.DocumentSet),
		lastActive: time.Now(),
	}
}

// nextMessageID returns a time-derived ID that is strictly increasing within
// the session even when messages land in the same millisecond.
func (s *Session) nextMessageID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastMsgID {
		id = s.lastMsgID + 1
	}
	s.lastMsgID = id
	return id
}

// append adds a message to the log and returns it. Caller must hold s.mu.
func (s *Session) append(role models.MessageRole, content string) models.Message {
	msg := models.Message{
		ID:      s.nextMessageID(),
		Role:    role,
		Content: content,
	}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Documents returns a shallow copy of the document store. Values are never
// mutated after insertion, so sharing them is safe.
func (s *Session) Documents() models.DocumentSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(models.DocumentSet, len(s.documents))
	for k, v := range s.documents {
		out[k] = v
	}
	return out
}

// Draft returns the current draft, or nil before preparation.
func (s *Session) Draft() models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// PendingCount reports how many edit instructions are queued for the next
// draft preparation.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Busy reports whether a top-level operation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastActive reports when the session last served an operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
