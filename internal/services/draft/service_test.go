package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
)

type stubLLM struct {
	lastMessages []interfaces.Message
	reply        string
	err          error
}

func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.lastMessages = messages
	return s.reply, s.err
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *stubLLM) Provider() string                      { return "stub" }
func (s *stubLLM) Close() error                          { return nil }

type stubStructured struct {
	lastReq *interfaces.StructuredRequest
	result  any
	err     error
}

func (s *stubStructured) GenerateJSON(ctx context.Context, req *interfaces.StructuredRequest) (any, error) {
	s.lastReq = req
	return s.result, s.err
}

func newTestService(llm *stubLLM, structured *stubStructured) *Service {
	return NewService(common.NewDefaultConfig(), llm, structured, common.GetLogger())
}

func TestChatReply_IncludesDocumentsAndHistory(t *testing.T) {
	llm := &stubLLM{reply: "O vendedor é João da Silva."}
	svc := newTestService(llm, &stubStructured{})

	documents := models.DocumentSet{
		"cnh.pdf": []any{map[string]any{"tipo_documento": "CNH"}},
	}
	history := []models.Message{
		{ID: 1, Role: models.RoleUser, Content: "Olá"},
		{ID: 2, Role: models.RoleBot, Content: "Olá! Como posso ajudar?"},
	}

	reply, err := svc.ChatReply(context.Background(), history, documents, "Quem é o vendedor?")
	require.NoError(t, err)
	assert.Equal(t, "O vendedor é João da Silva.", reply)

	require.Len(t, llm.lastMessages, 4)
	assert.Equal(t, "system", llm.lastMessages[0].Role)
	assert.Contains(t, llm.lastMessages[0].Content, "cnh.pdf")
	assert.Equal(t, "assistant", llm.lastMessages[2].Role)
	assert.Equal(t, "Quem é o vendedor?", llm.lastMessages[3].Content)
}

func TestChatReply_StripsCodeFence(t *testing.T) {
	llm := &stubLLM{reply: "```json\n{\"response\": \"oi\"}\n```"}
	svc := newTestService(llm, &stubStructured{})

	reply, err := svc.ChatReply(context.Background(), nil, nil, "oi")
	require.NoError(t, err)
	assert.Equal(t, "{\"response\": \"oi\"}", reply)
}

func TestChatReply_PropagatesError(t *testing.T) {
	llm := &stubLLM{err: models.NewAIServiceUnavailable(errors.New("down"))}
	svc := newTestService(llm, &stubStructured{})

	_, err := svc.ChatReply(context.Background(), nil, nil, "oi")
	require.Error(t, err)
	assert.Equal(t, "AI_SERVICE_UNAVAILABLE", models.AsAppError(err).Code)
}

func TestDetectEdit_PositiveWithInstruction(t *testing.T) {
	structured := &stubStructured{result: map[string]any{
		"is_edit_instruction": true,
		"instruction": map[string]any{
			"path":        "partes[0].nome",
			"new_value":   "João Silva",
			"description": "Alterar nome da primeira parte",
		},
	}}
	svc := newTestService(&stubLLM{}, structured)

	detect, err := svc.DetectEdit(context.Background(), "Muda o nome do vendedor para João Silva", models.DocumentSet{})
	require.NoError(t, err)

	assert.True(t, detect.IsEditInstruction)
	require.NotNil(t, detect.Instruction)
	assert.Equal(t, "partes[0].nome", detect.Instruction.Path)
	assert.Equal(t, "João Silva", detect.Instruction.NewValue)
}

func TestDetectEdit_Negative(t *testing.T) {
	structured := &stubStructured{result: map[string]any{"is_edit_instruction": false}}
	svc := newTestService(&stubLLM{}, structured)

	detect, err := svc.DetectEdit(context.Background(), "Quem são as partes?", models.DocumentSet{})
	require.NoError(t, err)

	assert.False(t, detect.IsEditInstruction)
	assert.Nil(t, detect.Instruction)
}

func TestDetectEdit_PositiveWithoutPathIsNotActionable(t *testing.T) {
	structured := &stubStructured{result: map[string]any{
		"is_edit_instruction": true,
		"instruction":         map[string]any{"new_value": "algo"},
	}}
	svc := newTestService(&stubLLM{}, structured)

	detect, err := svc.DetectEdit(context.Background(), "muda aí", models.DocumentSet{})
	require.NoError(t, err)
	assert.False(t, detect.IsEditInstruction)
}

func TestPrepareDraft_AppliesPendingInOrder(t *testing.T) {
	structured := &stubStructured{result: map[string]any{
		"partes": []any{
			map[string]any{"nome": "Nome Errado", "papel": "Vendedor"},
		},
		"pendencias": []any{},
	}}
	svc := newTestService(&stubLLM{}, structured)

	pending := []models.Instruction{
		{Path: "partes[0].nome", NewValue: "Maria Souza"},
		{Path: "partes[0].nome", NewValue: "Maria de Souza Lima"},
		{Path: "", NewValue: "ignorada"},
		{Path: "valor_monetario", NewValue: 350000.0},
	}

	draft, err := svc.PrepareDraft(context.Background(), models.DocumentSet{"doc.pdf": "x"}, pending)
	require.NoError(t, err)

	partes := draft["partes"].([]any)
	parte := partes[0].(map[string]any)
	assert.Equal(t, "Maria de Souza Lima", parte["nome"], "last instruction for the same path wins")
	assert.Equal(t, "Vendedor", parte["papel"])
	assert.Equal(t, 350000.0, draft["valor_monetario"])
}

func TestPrepareDraft_SurfacesPendencias(t *testing.T) {
	structured := &stubStructured{result: map[string]any{
		"partes":     []any{},
		"pendencias": []any{"Falta o CPF do comprador", "Valor divergente entre documentos"},
	}}
	svc := newTestService(&stubLLM{}, structured)

	draft, err := svc.PrepareDraft(context.Background(), models.DocumentSet{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Falta o CPF do comprador", "Valor divergente entre documentos"}, draft.Pendencias())
}

func TestPrepareDraft_NonObjectResponseFails(t *testing.T) {
	structured := &stubStructured{result: []any{"not", "an", "object"}}
	svc := newTestService(&stubLLM{}, structured)

	_, err := svc.PrepareDraft(context.Background(), models.DocumentSet{}, nil)
	require.Error(t, err)
	assert.Equal(t, "CONTRACT_GENERATION_FAILED", models.AsAppError(err).Code)
}

func TestEditDraft_ReturnsInstruction(t *testing.T) {
	structured := &stubStructured{result: map[string]any{
		"path":        "imovel.matricula",
		"new_value":   "12345",
		"description": "Alterar matrícula do imóvel para 12345",
	}}
	svc := newTestService(&stubLLM{}, structured)

	inst, err := svc.EditDraft(context.Background(), models.Draft{"imovel": map[string]any{}}, "Muda a matrícula para 12345")
	require.NoError(t, err)

	assert.Equal(t, "imovel.matricula", inst.Path)
	assert.Equal(t, "12345", inst.NewValue)
	assert.NotEmpty(t, inst.Description)
}

func TestEditDraft_UnusableResponse(t *testing.T) {
	structured := &stubStructured{result: map[string]any{"new_value": "sem path"}}
	svc := newTestService(&stubLLM{}, structured)

	_, err := svc.EditDraft(context.Background(), models.Draft{}, "muda aí")
	require.Error(t, err)
	assert.Equal(t, "INVALID_INPUT", models.AsAppError(err).Code)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"no fence", "resposta simples", "resposta simples"},
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"bare fence", "```\ntexto\n```", "texto"},
		{"whitespace around", "  \n```json\n{}\n```\n ", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.in))
		})
	}
}
