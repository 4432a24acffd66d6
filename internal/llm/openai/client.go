package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/llm"
)

// GenerateDraft implements llm.DraftGenerator over an OpenAI-compatible
// chat/completions endpoint, attaching the receipt image as a data URL.
func (c *Client) GenerateDraft(ctx context.Context, req llm.DraftRequest) (llm.DraftFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.draft.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"image_bytes", len(req.Image),
		"ocr_text_len", len(req.OCRText),
		"ocr_confidence", req.OCRConfidence,
	)

	schema := llm.BuildDraftJSONSchema(req.RetailerHints)
	userParts := []map[string]any{
		{"type": "text", "text": buildUserPrompt(req)},
		{"type": "image_url", "image_url": map[string]any{"url": dataURL(req.Image, req.MIMEType)}},
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req)},
			{"role": "user", "content": userParts},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("llm.draft.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftFields{}, nil, fmt.Errorf("%w: %v", common.ErrStructuringFailure, httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.draft.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftFields{}, raw, fmt.Errorf("%w: decode response: %v", common.ErrStructuringFailure, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.draft.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftFields{}, raw, fmt.Errorf("%w: no choices in response", common.ErrStructuringFailure)
	}

	content := llm.StripMarkdownFences([]byte(cc.Choices[0].Message.Content))

	// Validate strictly first; on failure try a lenient sanitize and re-validate.
	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		cleaned, dropped, sErr := llm.SanitizeDraftJSON(content)
		if sErr != nil {
			c.log.Error("llm.draft.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.DraftFields{}, content, fmt.Errorf("%w: sanitize: %v", common.ErrStructuringFailure, sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.draft.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.DraftFields{}, content, fmt.Errorf("%w: schema validation: %v", common.ErrStructuringFailure, vErr)
		}
		c.log.Warn("llm.draft.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
	}

	var out llm.DraftFields
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.draft.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftFields{}, content, fmt.Errorf("%w: unmarshal fields: %v", common.ErrStructuringFailure, err)
	}

	c.log.Info("llm.draft.ok",
		"req_id", rid,
		"retailer", out.Retailer,
		"date", out.Date,
		"total", out.Total,
		"items", len(out.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func buildSystemPrompt(req llm.DraftRequest) string {
	parts := []string{
		"You are a Bulgarian grocery receipt parser. Return ONLY JSON that matches the JSON Schema provided.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"All amounts are in BGN; output them as plain decimal strings without currency symbols.",
		"Item names must be copied from the receipt as printed, in Bulgarian where the receipt is Bulgarian.",
		"Never invent items; omit lines you cannot read.",
		"Never output null. If a field is not present, omit it.",
	}
	if len(req.RetailerHints) > 0 {
		parts = append(parts, "Known retailer chains: "+strings.Join(req.RetailerHints, ", ")+".")
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req llm.DraftRequest) string {
	var b strings.Builder
	b.WriteString("Extract retailer, purchase date, total and line items from this grocery receipt photo.")
	if ocr := strings.TrimSpace(req.OCRText); ocr != "" {
		b.WriteString("\n\nOCR text for cross-checking (may contain recognition errors, first ~3k chars):\n")
		if len(ocr) > 3000 {
			b.WriteString(ocr[:3000])
		} else {
			b.WriteString(ocr)
		}
	}
	return b.String()
}

func dataURL(image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
