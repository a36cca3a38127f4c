package interfaces

import (
	"context"

	"github.com/escriba/minuta/internal/models"
)

// OCRService analyzes one uploaded document and returns its structured
// content plus a display summary for the conversation log.
type OCRService interface {
	Analyze(ctx context.Context, filename string, data []byte) (*models.ExtractionResult, error)
}
