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

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, constructor.
// UserRepository interface'i döner (concrete struct değil).
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, username, password_hash, discord_id, discord_username, avatar, email, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var hash sql.NullString
	if err := row.Scan(
		&u.ID, &u.Username, &hash, &u.DiscordID, &u.DiscordUsername,
		&u.Avatar, &u.Email, &u.Role, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	return u, nil
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, discord_id, discord_username, avatar, email, role)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	var hash *string
	if user.PasswordHash != "" {
		hash = &user.PasswordHash
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		hash,
		user.DiscordID,
		user.DiscordUsername,
		user.Avatar,
		user.Email,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "discord_id") {
				return fmt.Errorf("%w: discord account already linked", pkg.ErrAlreadyExists)
			}
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE discord_id = ?`, discordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord id: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetSummaries(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error) {
	result := make(map[int64]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders, args := inClause(ids)
	query := `SELECT id, username, discord_username, avatar FROM users WHERE id IN (` + placeholders + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &models.UserSummary{}
		if err := rows.Scan(&s.ID, &s.Username, &s.DiscordUsername, &s.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		result[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user summaries: %w", err)
	}

	return result, nil
}

func (r *sqliteUserRepo) UpdateDiscordProfile(ctx context.Context, id int64, discordUsername, avatar *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET discord_username = ?, avatar = ? WHERE id = ?`,
		discordUsername, avatar, id)
	if err != nil {
		return fmt.Errorf("failed to update discord profile: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteUserRepo) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Delete, kullanıcıyı siler. Oturumlar FK cascade ile silinir;
// başvurular kalır ve enrichment'ta user=null olarak görünür.
func (r *sqliteUserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectAffected(result)
}
