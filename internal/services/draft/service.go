package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
	"github.com/escriba/minuta/internal/paths"
)

// Service implements the contract data operations on top of the configured
// chat provider and the structured extraction service.
type Service struct {
	config     *common.Config
	llm        interfaces.LLMService
	structured interfaces.StructuredService
	logger     arbor.ILogger
}

var _ interfaces.DraftService = (*Service)(nil)

// NewService creates a draft service.
func NewService(cfg *common.Config, llm interfaces.LLMService, structured interfaces.StructuredService, logger arbor.ILogger) *Service {
	return &Service{
		config:     cfg,
		llm:        llm,
		structured: structured,
		logger:     logger,
	}
}

// ChatReply answers a free-form user message grounded in the extracted
// documents.
func (s *Service) ChatReply(ctx context.Context, history []models.Message, documents models.DocumentSet, message string) (string, error) {
	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: fmt.Sprintf(chatSystemPromptTemplate, documentContext(documents)),
	})

	for _, m := range history {
		role := "user"
		if m.Role == models.RoleBot {
			role = "assistant"
		}
		messages = append(messages, interfaces.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, interfaces.Message{Role: "user", Content: message})

	reply, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	return stripCodeFence(reply), nil
}

// DetectEdit classifies a pre-draft message as an edit instruction.
func (s *Service) DetectEdit(ctx context.Context, message string, documents models.DocumentSet) (*interfaces.DetectResult, error) {
	prompt := fmt.Sprintf(detectEditPromptTemplate, message, truncate(documentsJSON(documents), 1000))

	result, err := s.structured.GenerateJSON(ctx, &interfaces.StructuredRequest{
		Prompt:       prompt,
		Model:        s.config.Gemini.ExtractionModel,
		OutputSchema: models.EditDetectionSchema(),
	})
	if err != nil {
		return nil, err
	}

	m, ok := result.(map[string]any)
	if !ok {
		s.logger.Warn().Msg("Edit detection response was not an object")
		return &interfaces.DetectResult{IsEditInstruction: false}, nil
	}

	detect := &interfaces.DetectResult{}
	detect.IsEditInstruction, _ = m["is_edit_instruction"].(bool)
	if inst, ok := m["instruction"].(map[string]any); ok {
		detect.Instruction = models.InstructionFromMap(inst)
	}
	// A positive classification without a usable path is not actionable.
	if detect.Instruction == nil {
		detect.IsEditInstruction = false
	}

	s.logger.Debug().
		Bool("is_edit", detect.IsEditInstruction).
		Msg("Edit detection completed")

	return detect, nil
}

// PrepareDraft consolidates the documents into a draft and replays the
// pending instructions in order. Instructions without a path or value are
// skipped.
func (s *Service) PrepareDraft(ctx context.Context, documents models.DocumentSet, pending []models.Instruction) (models.Draft, error) {
	prompt := fmt.Sprintf(consolidationPrompt, documentsJSON(documents))

	result, err := s.structured.GenerateJSON(ctx, &interfaces.StructuredRequest{
		Prompt:       prompt,
		Model:        s.config.Gemini.ChatModel,
		OutputSchema: models.DraftSchema(),
	})
	if err != nil {
		return nil, err
	}

	draftMap, ok := result.(map[string]any)
	if !ok {
		return nil, models.NewContractGenerationFailed(fmt.Errorf("consolidation response was not an object"))
	}

	applied := 0
	current := any(draftMap)
	for _, inst := range pending {
		if inst.Path == "" || inst.NewValue == nil {
			continue
		}
		current = paths.Set(current, inst.Path, inst.NewValue)
		applied++
	}

	final, ok := current.(map[string]any)
	if !ok {
		return nil, models.NewContractGenerationFailed(fmt.Errorf("draft lost object shape while applying instructions"))
	}

	s.logger.Info().
		Int("documents", len(documents)).
		Int("instructions_applied", applied).
		Msg("Contract draft prepared")

	return models.Draft(final), nil
}

// EditDraft derives one path-addressed instruction from a user message
// against the existing draft.
func (s *Service) EditDraft(ctx context.Context, draft models.Draft, message string) (*models.Instruction, error) {
	draftJSON, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize draft: %w", err)
	}

	prompt := fmt.Sprintf(editDraftPromptTemplate, string(draftJSON), message)

	result, err := s.structured.GenerateJSON(ctx, &interfaces.StructuredRequest{
		Prompt: prompt,
		Model:  s.config.Gemini.ChatModel,
		OutputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":        map[string]any{"type": "string"},
				"new_value":   map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []any{"path", "new_value", "description"},
		},
	})
	if err != nil {
		return nil, err
	}

	m, _ := result.(map[string]any)
	inst := models.InstructionFromMap(m)
	if inst == nil {
		return nil, models.NewInvalidInput("Não consegui identificar qual campo deve ser alterado. Pode reformular?")
	}

	return inst, nil
}

// documentContext renders the extracted documents as tagged blocks for the
// chat system prompt.
func documentContext(documents models.DocumentSet) string {
	if len(documents) == 0 {
		return "(nenhum documento enviado ainda)"
	}

	var b strings.Builder
	b.WriteString("<documentos>\n")
	for nome, dados := range documents {
		encoded, err := json.Marshal(dados)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "<doc nome='%s'>\n%s\n</doc>\n", nome, encoded)
	}
	b.WriteString("</documentos>")
	return b.String()
}

func documentsJSON(documents models.DocumentSet) string {
	encoded, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", documents)
	}
	return string(encoded)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// stripCodeFence removes a surrounding markdown code fence when the model
// wraps its answer in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
