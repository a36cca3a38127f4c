package interfaces

import (
	"context"

	"github.com/escriba/minuta/internal/models"
)

// DetectResult is the outcome of classifying a user message as an edit
// intent.
type DetectResult struct {
	IsEditInstruction bool                `json:"is_edit_instruction"`
	Instruction       *models.Instruction `json:"instruction,omitempty"`
}

// DraftService covers the inference-backed contract data operations: plain
// conversational replies over the gathered documents, edit-intent detection
// before a draft exists, consolidation of documents into a draft, and edits
// against an existing draft.
type DraftService interface {
	// ChatReply answers a free-form user message with the conversation
	// history and extracted documents as context.
	ChatReply(ctx context.Context, history []models.Message, documents models.DocumentSet, message string) (string, error)

	// DetectEdit classifies a message as an edit instruction against the
	// gathered (pre-draft) documents.
	DetectEdit(ctx context.Context, message string, documents models.DocumentSet) (*DetectResult, error)

	// PrepareDraft consolidates the documents into a contract draft and
	// applies the pending instructions in order.
	PrepareDraft(ctx context.Context, documents models.DocumentSet, pending []models.Instruction) (models.Draft, error)

	// EditDraft derives a single path-addressed instruction from a user
	// message against an existing draft.
	EditDraft(ctx context.Context, draft models.Draft, message string) (*models.Instruction, error)
}
