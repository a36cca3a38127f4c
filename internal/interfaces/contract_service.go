package interfaces

import (
	"context"

	"github.com/escriba/minuta/internal/models"
)

// Artifact is a generated binary document ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContractService renders a finished contract from a draft and a template.
type ContractService interface {
	// Generate produces the downloadable contract artifact. templateKey
	// must name one of the registered templates.
	Generate(ctx context.Context, templateKey string, draft models.Draft, extraText string) (*Artifact, error)

	// TemplateKeys lists the registered template keys.
	TemplateKeys() []string
}

// PDFService converts rendered content into PDF bytes.
type PDFService interface {
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
