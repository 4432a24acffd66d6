package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
)

// SQLiteCorrectionStore keeps corrections in a local file for the CLI and
// offline use. Same supersede-by-newer semantics as the Postgres store.
// Callers own the lifecycle and must Close it.
type SQLiteCorrectionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteCorrectionStore(path string, logger *slog.Logger) (*SQLiteCorrectionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite")
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS corrections (
			normalized_name TEXT NOT NULL,
			category_id     TEXT NOT NULL,
			created_at      TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS corrections_name_idx
			ON corrections (normalized_name, created_at DESC);`
	if _, err := db.Exec(schema); err != nil {
		return nil, common.WrapError(err, "create corrections table")
	}
	return &SQLiteCorrectionStore{db: db, logger: logger}, nil
}

func (s *SQLiteCorrectionStore) Get(ctx context.Context, normalizedName string) (*entity.CorrectionRecord, error) {
	const q = `
		SELECT normalized_name, category_id, created_at
		FROM corrections
		WHERE normalized_name = ?
		ORDER BY created_at DESC
		LIMIT 1`
	var rec entity.CorrectionRecord
	err := s.db.QueryRowContext(ctx, q, normalizedName).
		Scan(&rec.NormalizedName, &rec.CategoryID, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		s.logger.Error("corrections.get failed", "normalized_name", normalizedName, "error", err)
		return nil, common.WrapError(err, "query correction")
	}
	return &rec, nil
}

func (s *SQLiteCorrectionStore) Put(ctx context.Context, rec entity.CorrectionRecord) error {
	const q = `
		INSERT INTO corrections (normalized_name, category_id, created_at)
		VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, rec.NormalizedName, rec.CategoryID, time.Now().UTC()); err != nil {
		s.logger.Error("corrections.put failed", "normalized_name", rec.NormalizedName, "error", err)
		return common.WrapError(err, "insert correction")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteCorrectionStore) Close() error {
	return s.db.Close()
}
