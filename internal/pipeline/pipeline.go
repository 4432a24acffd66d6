package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/categorize"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
	"github.com/spesti-app/receipts-core/internal/gate"
	"github.com/spesti-app/receipts-core/internal/itemize"
	"github.com/spesti-app/receipts-core/internal/llm"
	"github.com/spesti-app/receipts-core/internal/ocr"
	"github.com/spesti-app/receipts-core/internal/product"
	"github.com/spesti-app/receipts-core/internal/reconcile"
)

// Config holds thresholds and behavior flags for the pipeline.
type Config struct {
	ReviewThreshold float32 // items below this are flagged for manual review, default 0.60
}

// Pipeline runs one extraction attempt: OCR text (non-fatal) and vision
// draft (fatal) feed reconciliation, retailer itemization and the quality
// gate; only accepted drafts reach normalization and categorization. Every
// stage is a pure function of its inputs, so a whole attempt is safe to
// retry.
type Pipeline struct {
	Logger     *slog.Logger
	Cfg        Config
	OCR        ocr.TextExtractor
	Generator  llm.DraftGenerator
	Reconciler *reconcile.Reconciler
	Strategies []itemize.Strategy
	Parser     *product.Parser
	Engine     *categorize.Engine
}

func New(
	logger *slog.Logger,
	cfg Config,
	textExtractor ocr.TextExtractor,
	generator llm.DraftGenerator,
	engine *categorize.Engine,
	parser *product.Parser,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = 0.60
	}
	if textExtractor == nil {
		textExtractor = ocr.Unavailable{}
	}
	if parser == nil {
		parser = product.NewParser(nil)
	}
	return &Pipeline{
		Logger:     logger,
		Cfg:        cfg,
		OCR:        textExtractor,
		Generator:  generator,
		Reconciler: reconcile.New(logger),
		Strategies: []itemize.Strategy{itemize.NewLIDL(logger)},
		Parser:     parser,
		Engine:     engine,
	}
}

// Result is the outcome of one attempt. On rejection the draft is returned
// for diagnosis only; none of its items have been normalized or categorized
// and nothing from it may be persisted.
type Result struct {
	Status      constants.AttemptStatus `json:"status"`
	Draft       entity.ReceiptDraft     `json:"draft"`
	Gate        gate.Result             `json:"gate"`
	RawText     string                  `json:"-"`
	NeedsReview []int                   `json:"needs_review,omitempty"` // item indexes below threshold
}

// Process runs the full attempt for one receipt photo.
func (p *Pipeline) Process(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	start := time.Now()
	p.Logger.Info("pipeline.start", "image_bytes", len(image), "mime", mimeType)

	// Stage 1: raw text. Failure degrades to draft-only values.
	var rawText string
	var ocrConfidence float32
	if res, err := p.OCR.Extract(ctx, image, mimeType); err != nil {
		p.Logger.Warn("pipeline.ocr.degraded", "error", err)
	} else {
		rawText = res.Text
		ocrConfidence = res.Confidence
	}

	// Stage 2: vision draft. Failure is fatal to the attempt.
	hints := make([]string, 0, len(constants.RetailerAliases))
	for canonical := range constants.RetailerAliases {
		hints = append(hints, canonical)
	}
	fields, _, err := p.Generator.GenerateDraft(ctx, llm.DraftRequest{
		Image:         image,
		MIMEType:      mimeType,
		OCRText:       rawText,
		OCRConfidence: ocrConfidence,
		RetailerHints: hints,
	})
	if err != nil {
		p.Logger.Error("pipeline.draft.failed", "error", err)
		return nil, fmt.Errorf("generate draft: %w", err)
	}
	draft := fields.ToDraft()
	draft.UsedRawText = rawText != ""

	// Stage 3: deterministic reconciliation and retailer-specific recovery.
	if rawText != "" {
		draft = p.Reconciler.Enhance(rawText, draft)
		if strategy := itemize.ForReceipt(p.Strategies, rawText); strategy != nil {
			draft.Items = append(draft.Items, strategy.Itemize(rawText, &draft)...)
		}
	}

	// Stage 4: quality gate. Fail-closed; rejected items never reach the
	// normalizer or categorizer.
	verdict := gate.Check(draft)
	if !verdict.Accepted {
		p.Logger.Warn("pipeline.gate.rejected",
			"failures", len(verdict.Failures),
			"detail", verdict.Error(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Result{
				Status: constants.AttemptRejected,
				Draft:  draft,
				Gate:   verdict,
			}, common.NewAppError("QUALITY_CHECK", verdict.Error(), common.ErrQualityCheck)
	}

	// Stage 5: normalize and categorize each item.
	var needsReview []int
	for i := range draft.Items {
		assignment := p.Engine.Categorize(ctx, draft.Items[i].Name)
		draft.Items[i].Name = p.Parser.Normalize(draft.Items[i].Name)
		draft.Items[i].Category = &assignment
		if assignment.Confidence < p.Cfg.ReviewThreshold {
			needsReview = append(needsReview, i)
		}
	}
	draft.Confidence = scoreDraft(draft, ocrConfidence)

	p.Logger.Info("pipeline.ok",
		"retailer", draft.Retailer,
		"date", draft.Date.Format("2006-01-02"),
		"total", draft.Total,
		"items", len(draft.Items),
		"needs_review", len(needsReview),
		"confidence", draft.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Result{
		Status:      constants.AttemptAccepted,
		Draft:       draft,
		Gate:        verdict,
		RawText:     rawText,
		NeedsReview: needsReview,
	}, nil
}

// scoreDraft combines provenance into the 0..100 draft confidence.
func scoreDraft(d entity.ReceiptDraft, ocrConfidence float32) int {
	score := 50
	if d.Reconciled {
		score += 20
	}
	if d.DateConfirmed {
		score += 10
	}
	if d.UsedRawText {
		score += int(ocrConfidence * 20)
	}
	if score > 100 {
		score = 100
	}
	return score
}
