package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"429 status", errors.New("googleapi: Error 429: Resource has been exhausted"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("quota exceeded for quota metric"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"nil error", nil, 0},
		{"please retry format", errors.New("Error 429: Please retry in 32s"), 32 * time.Second},
		{"retryDelay format", errors.New(`"retryDelay": 17s`), 17 * time.Second},
		{"fractional seconds", errors.New("Please retry in 2.5s"), 2500 * time.Millisecond},
		{"no delay in message", errors.New("Error 429: rate limited"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	t.Run("api suggested delay wins", func(t *testing.T) {
		backoff := cfg.CalculateBackoff(0, 30*time.Second)
		assert.Equal(t, 32*time.Second, backoff)
	})

	t.Run("api suggested delay is capped", func(t *testing.T) {
		backoff := cfg.CalculateBackoff(0, 10*time.Minute)
		assert.Equal(t, cfg.MaxBackoff, backoff)
	})

	t.Run("exponential growth", func(t *testing.T) {
		first := cfg.CalculateBackoff(0, 0)
		second := cfg.CalculateBackoff(1, 0)
		assert.Equal(t, cfg.InitialBackoff, first)
		assert.Greater(t, second, first)
	})

	t.Run("backoff never exceeds max", func(t *testing.T) {
		for attempt := 0; attempt < 10; attempt++ {
			assert.LessOrEqual(t, cfg.CalculateBackoff(attempt, 0), cfg.MaxBackoff)
		}
	})
}

func TestConvertToGenaiSchema(t *testing.T) {
	t.Run("nil map returns nil schema", func(t *testing.T) {
		schema, err := convertToGenaiSchema(nil)
		assert.NoError(t, err)
		assert.Nil(t, schema)
	})

	t.Run("nested object schema", func(t *testing.T) {
		schema, err := convertToGenaiSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"partes": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"valor": map[string]any{"type": "number", "description": "valor do imovel"},
			},
			"required": []any{"partes"},
		})
		assert.NoError(t, err)
		assert.NotNil(t, schema)
		assert.Len(t, schema.Properties, 2)
		assert.Equal(t, []string{"partes"}, schema.Required)
		assert.NotNil(t, schema.Properties["partes"].Items)
		assert.Equal(t, "valor do imovel", schema.Properties["valor"].Description)
	})
}
