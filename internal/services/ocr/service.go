package ocr

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
	"github.com/escriba/minuta/internal/payload"
)

// extractionPrompt steers the model toward conditional extraction: identity
// documents skip schedule hunting, financial statements get a bounded slice
// of installments. Mirrors the behavior users expect from the analysis step.
const extractionPrompt = `Siga este fluxo lógico para máxima velocidade e precisão:

1. IDENTIFICAÇÃO RÁPIDA: Identifique o tipo de cada documento no arquivo.

2. EXTRAÇÃO CONDICIONAL (EXTREMA IMPORTÂNCIA):
   - Se for Identidade (CNH, RG, Certidão): Extraia apenas dados pessoais. NÃO procure tabelas ou parcelas. Deixe 'cronograma_financeiro' como uma lista vazia [].
   - Se for Comprovante de Endereço: Extraia apenas o endereço e nome. NÃO procure parcelas.
   - Se for Extrato Financeiro ou Contrato:
     * AÍ SIM, procure o cronograma de parcelas.
     * Extraia apenas as primeiras 20 e as últimas 10 parcelas para economizar tempo.
     * No 'resumo_conteudo', cite o total (ex: 'Contém 120 parcelas no total').

3. OUTPUT: Retorne uma LISTA de objetos JSON seguindo o schema.
Seja conciso no 'resumo_conteudo'.`

var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Service analyzes uploaded documents with the structured extraction model.
type Service struct {
	config     *common.Config
	structured interfaces.StructuredService
	logger     arbor.ILogger
}

var _ interfaces.OCRService = (*Service)(nil)

// NewService creates a document analysis service.
func NewService(cfg *common.Config, structured interfaces.StructuredService, logger arbor.ILogger) *Service {
	return &Service{
		config:     cfg,
		structured: structured,
		logger:     logger,
	}
}

// Analyze extracts structured content from a single uploaded file. The file
// may contain several scanned documents; the result carries one entry per
// identified document plus a human-readable summary for the conversation log.
func (s *Service) Analyze(ctx context.Context, filename string, data []byte) (*models.ExtractionResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.config.AllowsExtension(ext) {
		return nil, models.NewInvalidInput(fmt.Sprintf("Tipo de arquivo não suportado: %s", ext))
	}

	req := &interfaces.StructuredRequest{
		Model: s.config.Gemini.ExtractionModel,
		OutputSchema: map[string]any{
			"type":  "array",
			"items": models.DocumentoSchema(),
		},
	}

	switch ext {
	case ".docx":
		// docx is sent as plain text; the model never sees the binary.
		text, err := extractDocxText(data)
		if err != nil {
			return nil, models.NewInvalidInput(fmt.Sprintf("Não foi possível ler o arquivo %s", filename))
		}
		req.Prompt = text + "\n\n" + extractionPrompt

	case ".pdf":
		pageCount, err := validatePDF(data)
		if err != nil {
			return nil, models.NewInvalidInput(fmt.Sprintf("O arquivo %s não é um PDF válido", filename))
		}
		s.logger.Debug().
			Str("filename", filename).
			Int("pages", pageCount).
			Msg("PDF validated for extraction")
		req.Prompt = extractionPrompt
		req.Files = []interfaces.FilePart{{Name: filename, MIMEType: mimeByExtension[ext], Data: data}}

	default:
		req.Prompt = extractionPrompt
		req.Files = []interfaces.FilePart{{Name: filename, MIMEType: mimeByExtension[ext], Data: data}}
	}

	result, err := s.structured.GenerateJSON(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", filename).Msg("Document extraction failed")
		return nil, models.AsAppError(err)
	}

	// Older model revisions wrapped the list in an envelope ({result: ...},
	// {data: ...}, with a sibling display text); unwrap defensively.
	documents, ok := payload.ExtractedContent(result).([]any)
	if !ok {
		s.logger.Warn().Str("filename", filename).Msg("Extraction response was not a document list")
		return &models.ExtractionResult{
			Filename: filename,
			Text:     "Erro: O modelo não conseguiu estruturar os dados. O documento pode ser muito complexo ou longo.",
			Content:  []any{},
		}, nil
	}

	text := payload.DisplayText(result)
	if text == "" {
		text = summarizeDocuments(documents)
	}

	return &models.ExtractionResult{
		Filename: filename,
		Text:     text,
		Content:  documents,
	}, nil
}

// validatePDF checks that the bytes form a readable PDF and returns its page
// count.
func validatePDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return 0, fmt.Errorf("PDF validation failed: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// summarizeDocuments renders the per-document blocks shown in the chat after
// an upload.
func summarizeDocuments(documents []any) string {
	var blocks []string
	for i, doc := range documents {
		m, ok := doc.(map[string]any)
		if !ok {
			continue
		}

		tipo, _ := m["tipo_documento"].(string)
		resumo, _ := m["resumo_conteudo"].(string)
		parcelas := 0
		if cron, ok := m["cronograma_financeiro"].([]any); ok {
			parcelas = len(cron)
		}

		blocks = append(blocks, fmt.Sprintf(
			"--- DOCUMENTO %d ---\nTipo: %s\nResumo: %s\nParcelas extraídas: %d",
			i+1, tipo, resumo, parcelas,
		))
	}
	return strings.Join(blocks, "\n")
}
