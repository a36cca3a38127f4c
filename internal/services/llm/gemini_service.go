package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
)

// GeminiService implements both the conversational and the structured LLM
// interfaces using the Google Gemini API. Structured operations (document
// extraction, drafting, edit detection) run here exclusively.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	limiter *rate.Limiter
}

var (
	_ interfaces.LLMService        = (*GeminiService)(nil)
	_ interfaces.StructuredService = (*GeminiService)(nil)
)

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format, extracting the first system message for use as SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		geminiRole := genai.RoleUser
		if msg.Role == "assistant" {
			geminiRole = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance. The API key is
// resolved from the environment with a config fallback; model names default
// when unset.
func NewGeminiService(config *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set MINUTA_GEMINI_API_KEY or gemini.api_key in config): %w", err)
	}

	if config.Gemini.ChatModel == "" {
		config.Gemini.ChatModel = "gemini-2.5-flash"
	}
	if config.Gemini.ExtractionModel == "" {
		config.Gemini.ExtractionModel = "gemini-2.5-pro"
	}

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini timeout '%s': %w", config.Gemini.Timeout, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	var limiter *rate.Limiter
	if config.Gemini.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(config.Gemini.RequestsPerMinute)/60.0), config.Gemini.RequestsPerMinute)
	}

	service := &GeminiService{
		config:  &config.Gemini,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: limiter,
	}

	logger.Info().
		Str("chat_model", config.Gemini.ChatModel).
		Str("extraction_model", config.Gemini.ExtractionModel).
		Dur("timeout", timeout).
		Int("requests_per_minute", config.Gemini.RequestsPerMinute).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.generateWithRetry(timeoutCtx, s.config.ChatModel, geminiContents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	response := extractResponseText(resp)
	if response == "" {
		return "", fmt.Errorf("no response generated from chat model")
	}

	s.logger.Info().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completion completed")

	return response, nil
}

// GenerateJSON runs a structured request against the extraction model and
// decodes the JSON response. When req.OutputSchema is set, Gemini enforces
// output matching the schema; otherwise the model is asked for unconstrained
// JSON and the caller normalizes the shape.
func (s *GeminiService) GenerateJSON(ctx context.Context, req *interfaces.StructuredRequest) (any, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("structured request requires a prompt")
	}

	parts := make([]*genai.Part, 0, len(req.Files)+1)
	for _, f := range req.Files {
		parts = append(parts, genai.NewPartFromBytes(f.Data, f.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.config.Temperature),
		ResponseMIMEType: "application/json",
	}
	if req.OutputSchema != nil {
		genaiSchema, err := convertToGenaiSchema(req.OutputSchema)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to convert output schema")
			// Continue without schema rather than failing
		} else if genaiSchema != nil {
			config.ResponseSchema = genaiSchema
		}
	}

	model := req.Model
	if model == "" {
		model = s.config.ExtractionModel
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.generateWithRetry(timeoutCtx, model, contents, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", model).
			Int("file_count", len(req.Files)).
			Msg("Structured generation failed")
		return nil, fmt.Errorf("structured generation failed: %w", err)
	}

	text := extractResponseText(resp)
	if text == "" {
		return nil, fmt.Errorf("no response generated from extraction model")
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode structured response: %w", err)
	}

	s.logger.Info().
		Str("model", model).
		Int("file_count", len(req.Files)).
		Int("response_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Structured generation completed")

	return decoded, nil
}

// generateWithRetry makes the API call with rate limiting and quota-aware
// retry, honoring the API-suggested delay on 429s.
func (s *GeminiService) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	retryConfig := NewDefaultRetryConfig()

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = s.client.Models.GenerateContent(ctx, model, contents, config)
		if apiErr == nil {
			return resp, nil
		}

		if attempt == retryConfig.MaxRetries || !IsRateLimitError(apiErr) {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, classifyAPIError(apiErr)
}

// classifyAPIError maps a raw API failure onto the error taxonomy the
// conversation layer reports to users. Exhausted retries on a rate limit mean
// the quota is gone, not that the service is down.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	if IsQuotaExhaustedError(err) || IsRateLimitError(err) {
		return models.NewAICreditsExceeded(err)
	}
	return models.NewAIServiceUnavailable(err)
}

// extractResponseText concatenates the text parts of the first candidate
// that carries any.
func extractResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// HealthCheck exercises the chat model with a minimal probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	response, err := s.Chat(probeCtx, []interfaces.Message{{Role: "user", Content: "ping"}})
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("chat probe returned empty response")
	}

	return nil
}

// Provider returns the provider name.
func (s *GeminiService) Provider() string {
	return "gemini"
}

// Close releases client resources. The genai.Client does not require an
// explicit close beyond clearing the reference.
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}
