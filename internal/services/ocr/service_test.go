package ocr

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
)

type stubStructured struct {
	lastReq *interfaces.StructuredRequest
	result  any
	err     error
}

func (s *stubStructured) GenerateJSON(ctx context.Context, req *interfaces.StructuredRequest) (any, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestService(stub *stubStructured) *Service {
	cfg := common.NewDefaultConfig()
	return NewService(cfg, stub, common.GetLogger())
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractDocxText(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Contrato de compra e venda</w:t></w:r></w:p>
    <w:p><w:r><w:t></w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Parcela</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>R$ 1.500,00</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Assinado em Goiânia</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := extractDocxText(buildDocx(t, docXML))
	require.NoError(t, err)

	assert.Equal(t, "Contrato de compra e venda\n[Tabela]: Parcela | R$ 1.500,00\nAssinado em Goiânia", text)
}

func TestExtractDocxText_NotAZip(t *testing.T) {
	_, err := extractDocxText([]byte("plain text, not a docx"))
	assert.Error(t, err)
}

func TestAnalyze_RejectsUnsupportedExtension(t *testing.T) {
	stub := &stubStructured{}
	svc := newTestService(stub)

	_, err := svc.Analyze(context.Background(), "malware.exe", []byte{0x4d, 0x5a})
	require.Error(t, err)

	appErr := models.AsAppError(err)
	assert.Equal(t, "INVALID_INPUT", appErr.Code)
	assert.Nil(t, stub.lastReq, "no model call should be made for rejected files")
}

func TestAnalyze_ImageGoesToModelAsFilePart(t *testing.T) {
	stub := &stubStructured{result: []any{
		map[string]any{
			"tipo_documento":        "CNH",
			"resumo_conteudo":       "CNH de João da Silva",
			"cronograma_financeiro": []any{},
		},
	}}
	svc := newTestService(stub)

	result, err := svc.Analyze(context.Background(), "cnh.png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	require.Len(t, stub.lastReq.Files, 1)
	assert.Equal(t, "image/png", stub.lastReq.Files[0].MIMEType)
	assert.Equal(t, "cnh.png", result.Filename)
	assert.Contains(t, result.Text, "--- DOCUMENTO 1 ---")
	assert.Contains(t, result.Text, "Tipo: CNH")
	assert.Contains(t, result.Text, "Parcelas extraídas: 0")
}

func TestAnalyze_DocxSentAsInlineText(t *testing.T) {
	stub := &stubStructured{result: []any{
		map[string]any{
			"tipo_documento":  "Contrato de Compra e Venda",
			"resumo_conteudo": "Contrato entre as partes",
			"cronograma_financeiro": []any{
				map[string]any{"tipo": "E", "indice": "1/2", "vencimento": "2026-01-10", "valor": 50000.0},
			},
		},
	}}
	svc := newTestService(stub)

	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Cláusula primeira</w:t></w:r></w:p></w:body></w:document>`
	result, err := svc.Analyze(context.Background(), "contrato.docx", buildDocx(t, docXML))
	require.NoError(t, err)

	assert.Empty(t, stub.lastReq.Files, "docx content travels as prompt text")
	assert.Contains(t, stub.lastReq.Prompt, "Cláusula primeira")
	assert.Contains(t, result.Text, "Parcelas extraídas: 1")
}

func TestAnalyze_NonListResponseFallsBackToErrorText(t *testing.T) {
	stub := &stubStructured{result: map[string]any{"unexpected": "shape"}}
	svc := newTestService(stub)

	result, err := svc.Analyze(context.Background(), "doc.png", []byte{0x89})
	require.NoError(t, err)

	assert.Contains(t, result.Text, "Erro")
	assert.Equal(t, []any{}, result.Content)
}

func TestAnalyze_UnwrapsEnvelopeResponse(t *testing.T) {
	stub := &stubStructured{result: map[string]any{
		"text": "Resumo legado",
		"data": []any{
			map[string]any{"tipo_documento": "RG", "resumo_conteudo": "RG de Maria"},
		},
	}}
	svc := newTestService(stub)

	result, err := svc.Analyze(context.Background(), "rg.jpg", []byte{0xff, 0xd8})
	require.NoError(t, err)

	assert.Equal(t, "Resumo legado", result.Text)
	content := result.Content.([]any)
	require.Len(t, content, 1)
}

func TestSummarizeDocuments_MultipleBlocks(t *testing.T) {
	text := summarizeDocuments([]any{
		map[string]any{"tipo_documento": "RG", "resumo_conteudo": "RG de Maria"},
		map[string]any{"tipo_documento": "Comprovante de Endereço", "resumo_conteudo": "Conta de luz"},
	})

	assert.Contains(t, text, "--- DOCUMENTO 1 ---")
	assert.Contains(t, text, "--- DOCUMENTO 2 ---")
	assert.Contains(t, text, "Resumo: Conta de luz")
}
