package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
)

type pgCorrectionStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgCorrectionStore(pool *pgxpool.Pool, logger *slog.Logger) CorrectionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgCorrectionStore{pool: pool, logger: logger}
}

func (s *pgCorrectionStore) Get(ctx context.Context, normalizedName string) (*entity.CorrectionRecord, error) {
	const q = `
		SELECT normalized_name, category_id, created_at
		FROM corrections
		WHERE normalized_name = $1
		ORDER BY created_at DESC
		LIMIT 1`
	var rec entity.CorrectionRecord
	err := s.pool.QueryRow(ctx, q, normalizedName).
		Scan(&rec.NormalizedName, &rec.CategoryID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		s.logger.Error("corrections.get failed", "normalized_name", normalizedName, "error", err)
		return nil, common.WrapError(err, "query correction")
	}
	return &rec, nil
}

func (s *pgCorrectionStore) Put(ctx context.Context, rec entity.CorrectionRecord) error {
	const q = `
		INSERT INTO corrections (normalized_name, category_id, created_at)
		VALUES ($1, $2, now())`
	if _, err := s.pool.Exec(ctx, q, rec.NormalizedName, rec.CategoryID); err != nil {
		s.logger.Error("corrections.put failed", "normalized_name", rec.NormalizedName, "error", err)
		return common.WrapError(err, "insert correction")
	}
	return nil
}
