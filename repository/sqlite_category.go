package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

// sqliteCategoryRepo, CategoryRepository interface'inin SQLite implementasyonu.
type sqliteCategoryRepo struct {
	db database.TxQuerier
}

// NewSQLiteCategoryRepo, constructor: interface döner.
func NewSQLiteCategoryRepo(db database.TxQuerier) CategoryRepository {
	return &sqliteCategoryRepo{db: db}
}

func (r *sqliteCategoryRepo) Create(ctx context.Context, category *models.NewsCategory) error {
	query := `
		INSERT INTO news_categories (name, slug, color)
		VALUES (?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		category.Name,
		category.Slug,
		category.Color,
	).Scan(&category.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category slug already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (r *sqliteCategoryRepo) GetByID(ctx context.Context, id int64) (*models.NewsCategory, error) {
	return r.getOne(ctx, `SELECT id, name, slug, color FROM news_categories WHERE id = ?`, id)
}

func (r *sqliteCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.NewsCategory, error) {
	return r.getOne(ctx, `SELECT id, name, slug, color FROM news_categories WHERE slug = ?`, slug)
}

func (r *sqliteCategoryRepo) getOne(ctx context.Context, query string, arg any) (*models.NewsCategory, error) {
	cat := &models.NewsCategory{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Color)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return cat, nil
}

func (r *sqliteCategoryRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.NewsCategory, error) {
	result := make(map[int64]*models.NewsCategory, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders, args := inClause(ids)
	cats, err := r.query(ctx,
		`SELECT id, name, slug, color FROM news_categories WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		result[cats[i].ID] = &cats[i]
	}
	return result, nil
}

func (r *sqliteCategoryRepo) GetAll(ctx context.Context) ([]models.NewsCategory, error) {
	return r.query(ctx, `SELECT id, name, slug, color FROM news_categories ORDER BY id ASC`)
}

func (r *sqliteCategoryRepo) query(ctx context.Context, query string, args ...any) ([]models.NewsCategory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.NewsCategory, 0)
	for rows.Next() {
		var cat models.NewsCategory
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

func (r *sqliteCategoryRepo) Update(ctx context.Context, category *models.NewsCategory) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news_categories SET name = ?, slug = ?, color = ? WHERE id = ?`,
		category.Name, category.Slug, category.Color, category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category slug already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectAffected(result)
}

// Delete, kategoriyi siler. Bağlı haberlerin category_id'si FK ile NULL olur.
func (r *sqliteCategoryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectAffected(result)
}
