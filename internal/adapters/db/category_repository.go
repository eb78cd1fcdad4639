// internal/adapters/db/category_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

const categoryColumns = `cat_id, parent_id, cat_name, cat_unit_code, code`

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct {
	db     ports.ConnectionPool
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db ports.ConnectionPool, logger *slog.Logger) ports.CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "category")),
	}
}

// GetCategories returns every category
func (r *categoryRepository) GetCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM cons_cats ORDER BY cat_id`

	var cats []domain.Category
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		cats, err = queryAll(ctx, q, "query categories", mapCategory, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "categories loaded", slog.Int("count", len(cats)))
	return cats, nil
}

// GetCategory retrieves a category by ID
func (r *categoryRepository) GetCategory(ctx context.Context, id int32) (*domain.Category, error) {
	var cat domain.Category
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		var err error
		cat, err = r.getCategory(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepository) getCategory(ctx context.Context, q ports.Querier, id int32) (domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM cons_cats WHERE cat_id = $1`
	return queryOne(ctx, q, "query category", mapCategory, query, id)
}

// CreateCategory inserts a category and returns the stored row
func (r *categoryRepository) CreateCategory(ctx context.Context, in domain.CreateCategory) (*domain.Category, error) {
	query := `
		INSERT INTO cons_cats (parent_id, cat_name, cat_unit_code, code)
		VALUES ($1, $2, $3, $4)
		RETURNING cat_id AS id`

	var cat domain.Category
	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		id, err := insertReturningID(ctx, q, "create category", query,
			in.ParentID, in.CatName, in.CatUnitCode, in.Code)
		if err != nil {
			return err
		}

		cat, err = r.getCategory(ctx, q, id)
		if err != nil {
			return fmt.Errorf("failed to reload category %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "category created", slog.Int("cat_id", int(cat.CatID)))
	return &cat, nil
}

// DeleteCategory removes a category by ID
func (r *categoryRepository) DeleteCategory(ctx context.Context, id int32) error {
	query := `DELETE FROM cons_cats WHERE cat_id = $1`

	err := r.db.WithConn(ctx, func(q ports.Querier) error {
		return execAffecting(ctx, q, "delete category", query, id)
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "category deleted", slog.Int("cat_id", int(id)))
	return nil
}

func mapCategory(row Row) (domain.Category, error) {
	var (
		c   domain.Category
		err error
	)

	if c.CatID, err = Required[int32](row, "cat_id"); err != nil {
		return c, err
	}
	if c.ParentID, err = Optional[int32](row, "parent_id"); err != nil {
		return c, err
	}
	if c.CatName, err = String(row, "cat_name"); err != nil {
		return c, err
	}
	c.CatUnitCode = Defaulted[int32](row, "cat_unit_code")
	c.Code = Defaulted[int32](row, "code")

	return c, nil
}
