package repository

import (
	"context"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/entity"
)

// CorrectionStore is the persisted learning loop: user corrections keyed by
// normalized product name. Reads feed the categorization engine; writes come
// from user edit actions outside the pipeline.
type CorrectionStore interface {
	// Get returns the newest correction for the key, or common.ErrNotFound.
	Get(ctx context.Context, normalizedName string) (*entity.CorrectionRecord, error)
	// Put records a correction. An existing record for the same key is
	// superseded, never mutated in place.
	Put(ctx context.Context, rec entity.CorrectionRecord) error
}

// CategoryRepository exposes the externally defined taxonomy. Entries may be
// added or renamed without code changes; everything keys on the stable id.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	FindByID(ctx context.Context, id constants.CategoryID) (*entity.Category, error)
}
