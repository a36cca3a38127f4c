package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// FilePart is a binary attachment sent alongside a structured request, used
// for multimodal document analysis.
type FilePart struct {
	Name     string
	MIMEType string
	Data     []byte
}

// StructuredRequest asks the model for schema-constrained JSON output.
type StructuredRequest struct {
	// Prompt is the instruction text.
	Prompt string

	// Files are optional binary parts (PDFs, images) the model should read.
	Files []FilePart

	// Model overrides the service's default model when non-empty.
	Model string

	// OutputSchema is a JSON-schema-shaped map constraining the response.
	// When nil the model is still asked for JSON output, unconstrained.
	OutputSchema map[string]any
}

// LLMService defines the interface for conversational completions.
// Implementations exist for Gemini and Claude; the active one is selected by
// configuration.
type LLMService interface {
	// Chat generates a completion from the conversation history. The
	// messages slice contains the full context in chronological order,
	// including system prompts.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service can reach its backing API.
	HealthCheck(ctx context.Context) error

	// Provider returns the implementation's provider name.
	Provider() string

	// Close releases client resources.
	Close() error
}

// StructuredService generates schema-constrained JSON. Only Gemini implements
// this; structured operations are pinned to it regardless of the configured
// chat provider.
type StructuredService interface {
	// GenerateJSON runs a structured request and returns the decoded JSON
	// value (map, slice, or scalar).
	GenerateJSON(ctx context.Context, req *StructuredRequest) (any, error)
}
