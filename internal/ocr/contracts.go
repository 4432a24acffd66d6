package ocr

import (
	"context"
	"time"
)

// TextExtractor turns image bytes into best-effort plain text. Failure is
// non-fatal to the pipeline; downstream stages strengthen or substitute.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Language   string
	Confidence float32 // heuristic 0..1
	Duration   time.Duration
	Warnings   []string
}
