package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
)

// Service generates the final contract artifact: the chat model writes the
// contract text following a registered layout, and the PDF service renders
// it for download.
type Service struct {
	config    *common.Config
	llm       interfaces.LLMService
	pdf       interfaces.PDFService
	logger    arbor.ILogger
	templates *templateRegistry
}

var _ interfaces.ContractService = (*Service)(nil)

// NewService creates a contract service, loading the templates from the
// configured directory.
func NewService(cfg *common.Config, llm interfaces.LLMService, pdf interfaces.PDFService, logger arbor.ILogger) (*Service, error) {
	templates, err := loadTemplates(cfg.Contract.TemplatesDir)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("templates_dir", cfg.Contract.TemplatesDir).
		Int("templates", len(templates.layouts)).
		Msg("Contract templates loaded")

	return &Service{
		config:    cfg,
		llm:       llm,
		pdf:       pdf,
		logger:    logger,
		templates: templates,
	}, nil
}

var (
	signatureBlockRe   = regexp.MustCompile(`(?is)<<<ASSINATURAS_INICIO>>>(.*?)<<<ASSINATURAS_FIM>>>`)
	excessBlankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Generate produces the downloadable contract PDF for the given draft.
func (s *Service) Generate(ctx context.Context, templateKey string, draft models.Draft, extraText string) (*interfaces.Artifact, error) {
	layout, ok := s.templates.layout(templateKey)
	if !ok {
		return nil, models.NewInvalidInput(fmt.Sprintf("Template inválido: %s", templateKey))
	}
	if len(draft) == 0 {
		return nil, models.NewInvalidInput("Prepare a minuta antes de gerar o contrato.")
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, models.NewContractGenerationFailed(fmt.Errorf("failed to serialize draft: %w", err))
	}

	reply, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: generationSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(generationUserPromptTemplate, draftJSON, extraText, layout)},
	})
	if err != nil {
		return nil, models.AsAppError(err)
	}

	markdown := assembleContract(reply)
	if strings.TrimSpace(markdown) == "" {
		return nil, models.NewContractGenerationFailed(fmt.Errorf("model returned empty contract text"))
	}

	pdfBytes, err := s.pdf.ConvertMarkdownToPDF(markdown, contractTitle(templateKey))
	if err != nil {
		return nil, models.NewContractGenerationFailed(err)
	}

	s.logger.Info().
		Str("template", templateKey).
		Int("pdf_size", len(pdfBytes)).
		Msg("Contract generated")

	return &interfaces.Artifact{
		Filename:    fmt.Sprintf("contrato_%s.pdf", templateKey),
		ContentType: "application/pdf",
		Data:        pdfBytes,
	}, nil
}

// TemplateKeys lists the registered template keys.
func (s *Service) TemplateKeys() []string {
	return s.templates.keys()
}

// assembleContract normalizes the model output: code fences stripped, the
// signature block moved to the end after a rule, excess blank lines
// collapsed.
func assembleContract(reply string) string {
	body := strings.TrimSpace(reply)
	body = strings.TrimPrefix(body, "```markdown")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	var signatures string
	if m := signatureBlockRe.FindStringSubmatch(body); m != nil {
		signatures = strings.TrimSpace(m[1])
		body = signatureBlockRe.ReplaceAllString(body, "")
	}

	body = strings.TrimSpace(body)
	if signatures != "" {
		body = body + "\n\n---\n\n" + signatures
	}

	return excessBlankLinesRe.ReplaceAllString(body, "\n\n")
}

func contractTitle(templateKey string) string {
	switch templateKey {
	case "compra-venda":
		return "Contrato de Compra e Venda"
	case "financiamento-go":
		return "Contrato de Compra e Venda com Financiamento (GO)"
	case "financiamento-ms":
		return "Contrato de Compra e Venda com Financiamento (MS)"
	default:
		return "Contrato"
	}
}
