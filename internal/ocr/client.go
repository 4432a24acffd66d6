package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spesti-app/receipts-core/internal/common"
)

// Config for the OCR service client.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string        // tesseract language code, e.g. "bul"
	Timeout  time.Duration // http client timeout
}

// Client calls a hosted OCR service over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Language == "" {
		cfg.Language = "bul"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Extract sends the image to the OCR service and returns normalized text.
// Any transport or decode error is reported as ErrExtractionUnavailable so
// callers can degrade instead of aborting.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) (TextExtractionResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.BaseURL == "" {
		return TextExtractionResult{}, common.ErrExtractionUnavailable
	}

	c.log.Info("ocr.extract.start",
		"req_id", rid,
		"image_bytes", len(image),
		"mime", mimeType,
		"language", c.cfg.Language,
	)

	body := map[string]any{
		"image":    base64.StdEncoding.EncodeToString(image),
		"mime":     mimeType,
		"language": c.cfg.Language,
	}
	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/ocr", body)
	if err != nil {
		c.log.Warn("ocr.extract.unavailable",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return TextExtractionResult{}, fmt.Errorf("%w: %v", common.ErrExtractionUnavailable, err)
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn("ocr.extract.decode_error", "req_id", rid, "error", err)
		return TextExtractionResult{}, fmt.Errorf("%w: decode response: %v", common.ErrExtractionUnavailable, err)
	}

	text := Normalize(resp.Text)
	res := TextExtractionResult{
		Text:       text,
		Language:   c.cfg.Language,
		Confidence: heuristicConfidence(text),
		Duration:   time.Since(start),
	}
	c.log.Info("ocr.extract.ok",
		"req_id", rid,
		"text_bytes", len(text),
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
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
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("ocr response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ocr status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
