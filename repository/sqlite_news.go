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

type sqliteNewsRepo struct {
	db database.TxQuerier
}

// NewSQLiteNewsRepo, constructor.
func NewSQLiteNewsRepo(db database.TxQuerier) NewsRepository {
	return &sqliteNewsRepo{db: db}
}

const newsColumns = `id, title, slug, content, excerpt, cover_image, published_at, author_id, category_id, published`

func scanNews(row interface{ Scan(...any) error }) (*models.News, error) {
	n := &models.News{}
	if err := row.Scan(
		&n.ID, &n.Title, &n.Slug, &n.Content, &n.Excerpt, &n.CoverImage,
		&n.PublishedAt, &n.AuthorID, &n.CategoryID, &n.Published,
	); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *sqliteNewsRepo) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (title, slug, content, excerpt, cover_image, published_at, author_id, category_id, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		news.Title,
		news.Slug,
		news.Content,
		news.Excerpt,
		news.CoverImage,
		news.PublishedAt.UTC(),
		news.AuthorID,
		news.CategoryID,
		news.Published,
	).Scan(&news.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: news slug already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create news: %w", err)
	}
	return nil
}

func (r *sqliteNewsRepo) GetByID(ctx context.Context, id int64) (*models.News, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news by id: %w", err)
	}
	return n, nil
}

func (r *sqliteNewsRepo) GetBySlug(ctx context.Context, slug string) (*models.News, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news by slug: %w", err)
	}
	return n, nil
}

func (r *sqliteNewsRepo) List(ctx context.Context, filter models.NewsFilter, publishedOnly bool) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE 1 = 1`
	var args []any
	if publishedOnly {
		query += ` AND published = 1`
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return r.query(ctx, query, args...)
}

func (r *sqliteNewsRepo) Featured(ctx context.Context, limit int) ([]models.News, error) {
	return r.query(ctx,
		`SELECT `+newsColumns+` FROM news WHERE published = 1
		ORDER BY published_at DESC, id DESC LIMIT ?`, limit)
}

func (r *sqliteNewsRepo) Count(ctx context.Context, publishedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM news`
	if publishedOnly {
		query += ` WHERE published = 1`
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count news: %w", err)
	}
	return count, nil
}

func (r *sqliteNewsRepo) Update(ctx context.Context, news *models.News) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news SET title = ?, slug = ?, content = ?, excerpt = ?, cover_image = ?,
		category_id = ?, published = ? WHERE id = ?`,
		news.Title, news.Slug, news.Content, news.Excerpt, news.CoverImage,
		news.CategoryID, news.Published, news.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: news slug already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update news: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteNewsRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteNewsRepo) query(ctx context.Context, query string, args ...any) ([]models.News, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	list := make([]models.News, 0)
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		list = append(list, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news: %w", err)
	}
	return list, nil
}
