package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

type sqliteSettingRepo struct {
	db database.TxQuerier
}

// NewSQLiteSettingRepo, constructor.
func NewSQLiteSettingRepo(db database.TxQuerier) SettingRepository {
	return &sqliteSettingRepo{db: db}
}

func (r *sqliteSettingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	s := &models.Setting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, category FROM settings WHERE key = ?`, key,
	).Scan(&s.Key, &s.Value, &s.Category)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

func (r *sqliteSettingRepo) List(ctx context.Context) ([]models.Setting, error) {
	return r.query(ctx, `SELECT key, value, category FROM settings ORDER BY category, key`)
}

func (r *sqliteSettingRepo) ListByCategory(ctx context.Context, category string) ([]models.Setting, error) {
	return r.query(ctx,
		`SELECT key, value, category FROM settings WHERE category = ? ORDER BY key`, category)
}

func (r *sqliteSettingRepo) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	settings, err := r.query(ctx,
		`SELECT key, value, category FROM settings WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return result, nil
}

func (r *sqliteSettingRepo) Upsert(ctx context.Context, setting *models.Setting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, category) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category`,
		setting.Key, setting.Value, setting.Category)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

func (r *sqliteSettingRepo) query(ctx context.Context, query string, args ...any) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make([]models.Setting, 0)
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Category); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}
