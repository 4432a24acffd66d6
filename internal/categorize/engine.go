package categorize

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
	"github.com/spesti-app/receipts-core/internal/product"
	"github.com/spesti-app/receipts-core/internal/repository"
)

// Config holds method-specific confidence levels.
type Config struct {
	KeywordConfidence float32 // default 0.75
	DefaultConfidence float32 // default 0.30
}

// Engine assigns a category to a product name. Resolution order: persisted
// user correction, keyword rule over the product dictionary, default bucket.
type Engine struct {
	logger     *slog.Logger
	cfg        Config
	store      repository.CorrectionStore // optional
	categories repository.CategoryRepository
	parser     *product.Parser
}

func NewEngine(
	logger *slog.Logger,
	cfg Config,
	store repository.CorrectionStore,
	categories repository.CategoryRepository,
	parser *product.Parser,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeywordConfidence <= 0 {
		cfg.KeywordConfidence = 0.75
	}
	if cfg.DefaultConfidence <= 0 {
		cfg.DefaultConfidence = 0.30
	}
	if categories == nil {
		categories = repository.NewStaticCategoryRepository()
	}
	if parser == nil {
		parser = product.NewParser(nil)
	}
	return &Engine{
		logger:     logger,
		cfg:        cfg,
		store:      store,
		categories: categories,
		parser:     parser,
	}
}

// Categorize resolves a category for the raw or normalized product name.
// A single stored correction permanently overrides every automatic outcome
// for that exact normalized name.
func (e *Engine) Categorize(ctx context.Context, name string) entity.CategoryAssignment {
	normalized := e.parser.Normalize(name)

	if e.store != nil {
		rec, err := e.store.Get(ctx, normalized)
		switch {
		case err == nil:
			return entity.CategoryAssignment{
				CategoryID:   rec.CategoryID,
				CategoryName: e.categoryName(ctx, rec.CategoryID),
				Confidence:   1.0,
				Method:       constants.MethodUserCorrection,
			}
		case errors.Is(err, common.ErrNotFound):
			// fall through to keyword rules
		default:
			e.logger.Warn("categorize.correction_lookup_failed",
				"normalized_name", normalized, "error", err)
		}
	}

	if _, categoryID, ok := e.parser.ParseWithCategory(name); ok {
		return entity.CategoryAssignment{
			CategoryID:   categoryID,
			CategoryName: e.categoryName(ctx, categoryID),
			Confidence:   e.cfg.KeywordConfidence,
			Method:       constants.MethodKeywordRule,
		}
	}

	return entity.CategoryAssignment{
		CategoryID:   constants.Other,
		CategoryName: e.categoryName(ctx, constants.Other),
		Confidence:   e.cfg.DefaultConfidence,
		Method:       constants.MethodDefault,
	}
}

// Learn persists a user correction for the product name. Persistence errors
// are logged and absorbed: losing a learning signal is lower severity than
// failing the user's transaction.
func (e *Engine) Learn(ctx context.Context, name string, categoryID constants.CategoryID) {
	if e.store == nil {
		return
	}
	normalized := e.parser.Normalize(name)
	rec := entity.CorrectionRecord{
		NormalizedName: normalized,
		CategoryID:     categoryID,
	}
	if err := e.store.Put(ctx, rec); err != nil {
		e.logger.Warn("categorize.correction_persist_failed",
			"normalized_name", normalized,
			"category_id", categoryID,
			"error", common.WrapError(err, common.ErrCorrectionPersist.Error()),
		)
		return
	}
	e.logger.Info("categorize.correction_saved",
		"normalized_name", normalized, "category_id", categoryID)
}

func (e *Engine) categoryName(ctx context.Context, id constants.CategoryID) string {
	if c, err := e.categories.FindByID(ctx, id); err == nil {
		return c.Name
	}
	if name, ok := constants.DefaultCategoryNames[id]; ok {
		return name
	}
	return string(id)
}
