package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/llm"
)

// Client implements llm.DraftGenerator using Google Gemini.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *slog.Logger
}

func NewClient(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		client: client,
		model:  client.GenerativeModel(modelName),
		log:    logger,
	}, nil
}

// GenerateDraft analyzes the receipt photo and extracts the draft fields.
func (c *Client) GenerateDraft(ctx context.Context, req llm.DraftRequest) (llm.DraftFields, []byte, error) {
	start := time.Now()
	schema := llm.BuildDraftJSONSchema(req.RetailerHints)

	c.log.Info("llm.draft.start",
		"provider", "gemini",
		"image_bytes", len(req.Image),
		"ocr_text_len", len(req.OCRText),
	)

	parts := []genai.Part{
		genai.ImageData(formatSuffix(req.MIMEType), req.Image),
		genai.Text(buildPrompt(req, schema)),
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		c.log.Error("llm.draft.call_failed", "provider", "gemini", "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.DraftFields{}, nil, fmt.Errorf("%w: %v", common.ErrStructuringFailure, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return llm.DraftFields{}, nil, fmt.Errorf("%w: no response from gemini", common.ErrStructuringFailure)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	content := llm.StripMarkdownFences([]byte(responseText.String()))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		cleaned, dropped, sErr := llm.SanitizeDraftJSON(content)
		if sErr != nil || llm.ValidateJSONAgainstSchema(schema, cleaned) != nil {
			c.log.Error("llm.draft.schema_validation_failed", "provider", "gemini", "error", err)
			return llm.DraftFields{}, content, fmt.Errorf("%w: schema validation: %v", common.ErrStructuringFailure, err)
		}
		c.log.Warn("llm.draft.lenient_sanitize_applied", "provider", "gemini", "dropped", dropped)
		content = cleaned
	}

	var out llm.DraftFields
	if err := json.Unmarshal(content, &out); err != nil {
		return llm.DraftFields{}, content, fmt.Errorf("%w: unmarshal fields: %v", common.ErrStructuringFailure, err)
	}

	c.log.Info("llm.draft.ok",
		"provider", "gemini",
		"retailer", out.Retailer,
		"items", len(out.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

func buildPrompt(req llm.DraftRequest, schema map[string]any) string {
	sb, _ := json.MarshalIndent(schema, "", "  ")
	var b strings.Builder
	b.WriteString("Extract retailer, purchase date, total and line items from this Bulgarian grocery receipt photo. ")
	b.WriteString("Amounts are in BGN; output plain decimal strings. Use ISO-8601 dates. ")
	b.WriteString("Return ONLY JSON matching this schema:\n")
	b.Write(sb)
	if ocr := strings.TrimSpace(req.OCRText); ocr != "" {
		b.WriteString("\n\nOCR text for cross-checking (may contain recognition errors):\n")
		if len(ocr) > 3000 {
			ocr = ocr[:3000]
		}
		b.WriteString(ocr)
	}
	return b.String()
}

// genai.ImageData expects just the format suffix (e.g. "png"), not the full
// MIME type.
func formatSuffix(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}
