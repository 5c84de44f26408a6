package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

type sqliteApplicationRepo struct {
	db database.TxQuerier
}

// NewSQLiteApplicationRepo, constructor.
func NewSQLiteApplicationRepo(db database.TxQuerier) ApplicationRepository {
	return &sqliteApplicationRepo{db: db}
}

const applicationColumns = `id, user_id, age, timezone, languages, availability,
	rp_experience, moderation_experience, server_familiarity, why_join, scenario,
	contribution, additional_info, status, admin_notes, reviewed_by, created_at, updated_at`

const applicationInsertColumns = `user_id, age, timezone, languages, availability,
	rp_experience, moderation_experience, server_familiarity, why_join, scenario,
	contribution, additional_info, status, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.Age, &a.Timezone, &a.Languages, &a.Availability,
		&a.RPExperience, &a.ModerationExperience, &a.ServerFamiliarity, &a.WhyJoin, &a.Scenario,
		&a.Contribution, &a.AdditionalInfo, &a.Status, &a.AdminNotes, &a.ReviewedBy,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func insertArgs(app *models.Application) []any {
	return []any{
		app.UserID, app.Age, app.Timezone, app.Languages, app.Availability,
		app.RPExperience, app.ModerationExperience, app.ServerFamiliarity, app.WhyJoin, app.Scenario,
		app.Contribution, app.AdditionalInfo, app.Status, app.CreatedAt.UTC(), app.UpdatedAt.UTC(),
	}
}

func (r *sqliteApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	query := `INSERT INTO staff_applications (` + applicationInsertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, insertArgs(app)...).Scan(&app.ID); err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *sqliteApplicationRepo) CreateIfNoneOpen(ctx context.Context, app *models.Application) error {
	// INSERT ... SELECT ... WHERE NOT EXISTS: açık başvuru varsa hiç satır eklenmez
	// ve RETURNING boş döner. İki eşzamanlı submit SQLite'ın yazma kilidi ile sıralanır.
	query := `INSERT INTO staff_applications (` + applicationInsertColumns + `)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM staff_applications
			WHERE user_id = ? AND status IN ('pending', 'in_review')
		)
		RETURNING id`

	args := append(insertArgs(app), app.UserID)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&app.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: you already have an open application", pkg.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *sqliteApplicationRepo) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM staff_applications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// List, filtreye uyan başvuruları en yeniden eskiye döner.
// Filter'ın Normalize edilmiş olması beklenir.
func (r *sqliteApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM staff_applications`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return r.queryApplications(ctx, query, args...)
}

func (r *sqliteApplicationRepo) Count(ctx context.Context, status *models.ApplicationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM staff_applications`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

func (r *sqliteApplicationRepo) ListByUser(ctx context.Context, userID int64) ([]models.Application, error) {
	return r.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM staff_applications
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (r *sqliteApplicationRepo) UpdateReview(ctx context.Context, id int64, status models.ApplicationStatus, adminNotes *string, reviewedBy int64, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE staff_applications
		SET status = ?, admin_notes = ?, reviewed_by = ?, updated_at = ?
		WHERE id = ?`,
		status, adminNotes, reviewedBy, updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update application review: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteApplicationRepo) UpdateReviewFrom(ctx context.Context, id int64, from, status models.ApplicationStatus, adminNotes *string, reviewedBy int64, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE staff_applications
		SET status = ?, admin_notes = ?, reviewed_by = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, adminNotes, reviewedBy, updatedAt.UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update application review: %w", err)
	}

	err = expectAffected(result)
	if !errors.Is(err, pkg.ErrNotFound) {
		return err
	}

	// Sıfır satır: ya başvuru yok ya da arada başka bir review durumu değiştirdi.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return getErr
	}
	return fmt.Errorf("%w: application is now %s", pkg.ErrConflict, current.Status)
}

func (r *sqliteApplicationRepo) HasOpen(ctx context.Context, userID int64) (bool, error) {
	var open bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM staff_applications
			WHERE user_id = ? AND status IN ('pending', 'in_review')
		)`, userID).Scan(&open)
	if err != nil {
		return false, fmt.Errorf("failed to check open applications: %w", err)
	}
	return open, nil
}

// CountByStatus, her durum için başvuru sayısını döner.
// Hiç başvurusu olmayan durumlar da 0 ile map'te yer alır.
func (r *sqliteApplicationRepo) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error) {
	counts := make(map[models.ApplicationStatus]int, len(models.ApplicationStatuses))
	for _, s := range models.ApplicationStatuses {
		counts[s] = 0
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM staff_applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.ApplicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

func (r *sqliteApplicationRepo) queryApplications(ctx context.Context, query string, args ...any) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return apps, nil
}
