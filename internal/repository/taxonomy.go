package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
)

type pgCategoryRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPgCategoryRepository(pool *pgxpool.Pool, logger *slog.Logger) CategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgCategoryRepository{pool: pool, logger: logger}
}

func (r *pgCategoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, common.WrapError(err, "list categories")
	}
	defer rows.Close()

	var result []*entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, common.WrapError(err, "scan category")
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *pgCategoryRepository) FindByID(ctx context.Context, id constants.CategoryID) (*entity.Category, error) {
	var c entity.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "find category")
	}
	return &c, nil
}

// staticCategoryRepository serves the embedded default taxonomy when no
// database is wired (CLI/offline mode).
type staticCategoryRepository struct{}

func NewStaticCategoryRepository() CategoryRepository {
	return staticCategoryRepository{}
}

func (staticCategoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	ids := constants.AllCategories()
	out := make([]*entity.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, &entity.Category{ID: id, Name: constants.DefaultCategoryNames[id]})
	}
	return out, nil
}

func (staticCategoryRepository) FindByID(ctx context.Context, id constants.CategoryID) (*entity.Category, error) {
	name, ok := constants.DefaultCategoryNames[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &entity.Category{ID: id, Name: name}, nil
}
