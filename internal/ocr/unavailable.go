package ocr

import (
	"context"

	"github.com/spesti-app/receipts-core/internal/common"
)

// Unavailable is the no-op TextExtractor wired in when no OCR service is
// configured. Resolved once at process start; keeps environment sniffing out
// of the pipeline itself.
type Unavailable struct{}

func (Unavailable) Extract(ctx context.Context, image []byte, mimeType string) (TextExtractionResult, error) {
	return TextExtractionResult{}, common.ErrExtractionUnavailable
}
