package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		expected string
	}{
		{
			name:     "nil payload",
			payload:  nil,
			expected: "",
		},
		{
			name:     "plain string",
			payload:  "plain",
			expected: "plain",
		},
		{
			name:     "response string field",
			payload:  map[string]any{"response": "olá"},
			expected: "olá",
		},
		{
			name: "nested response object",
			payload: map[string]any{
				"response": map[string]any{"response": "hi", "updates": []any{}},
			},
			expected: "hi",
		},
		{
			name:     "unknown shape falls back to pretty JSON",
			payload:  map[string]any{"foo": 1},
			expected: "{\n  \"foo\": 1\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractText(tt.payload))
		})
	}
}

func TestExtractText_EmptyNestedResponseFallsThrough(t *testing.T) {
	// The inner object carries no text field, so the recursion bottoms out in
	// its own JSON fallback; that non-empty result wins over serializing the
	// envelope.
	payload := map[string]any{"response": map[string]any{"updates": []any{}}}
	got := ExtractText(payload)
	assert.Equal(t, "{\n  \"updates\": []\n}", got)
	assert.NotContains(t, got, "response")
}

func TestExtractUpdates(t *testing.T) {
	updates := []any{map[string]any{"path": "imovel.cidade"}}

	assert.Equal(t, updates, ExtractUpdates(map[string]any{"updates": updates}))
	assert.Equal(t, updates, ExtractUpdates(map[string]any{
		"response": map[string]any{"updates": updates},
	}))
	assert.Empty(t, ExtractUpdates(map[string]any{"response": "texto"}))
	assert.Empty(t, ExtractUpdates(nil))
	assert.Empty(t, ExtractUpdates("string"))
}

func TestExtractInstruction(t *testing.T) {
	inst := map[string]any{"path": "partes[0].nome", "new_value": "João", "description": "Alterar nome"}

	assert.Equal(t, inst, ExtractInstruction(map[string]any{"instruction": inst}))
	assert.Equal(t, inst, ExtractInstruction(map[string]any{
		"response": map[string]any{"instruction": inst},
	}))
	assert.Nil(t, ExtractInstruction(map[string]any{"response": "texto"}))
	assert.Nil(t, ExtractInstruction(nil))
}

func TestExtractedContent(t *testing.T) {
	result := map[string]any{"tipo_documento": "RG"}

	assert.Equal(t, result, ExtractedContent(map[string]any{"result": result}))
	assert.Equal(t, result, ExtractedContent(map[string]any{"data": result}))

	// Neither field present: the whole payload is the content.
	whole := map[string]any{"tipo_documento": "CNH"}
	assert.Equal(t, whole, ExtractedContent(whole))
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "resumo", DisplayText(map[string]any{"text": "resumo"}))
	assert.Equal(t, "resumo", DisplayText(map[string]any{"result_text": "resumo"}))
	assert.Equal(t, "resumo", DisplayText(map[string]any{"result": "resumo"}))

	// Precedence: text wins over result.
	assert.Equal(t, "a", DisplayText(map[string]any{"text": "a", "result": "b"}))

	// Non-string values are serialized rather than dropped.
	got := DisplayText(map[string]any{"text": map[string]any{"k": "v"}})
	assert.Contains(t, got, "\"k\": \"v\"")

	assert.Equal(t, "", DisplayText(nil))
	assert.Equal(t, "", DisplayText(map[string]any{}))
}
