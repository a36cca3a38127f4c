package llm

import (
	"fmt"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// NewLLMService creates the chat provider selected by configuration and the
// structured extraction service. Structured extraction (OCR, draft
// consolidation) always runs on Gemini regardless of the chat provider, since
// it relies on response schemas and inline file parts.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, interfaces.StructuredService, error) {
	gemini, err := NewGeminiService(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	provider := cfg.LLM.Provider
	if provider == "" {
		provider = "gemini"
	}

	logger.Info().Str("provider", provider).Msg("Initializing LLM service")

	switch provider {
	case "gemini":
		return gemini, gemini, nil

	case "claude":
		claude, err := NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		return claude, gemini, nil

	default:
		return nil, nil, fmt.Errorf("unsupported LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
