package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg"
)

type sqliteStaffRepo struct {
	db database.TxQuerier
}

// NewSQLiteStaffRepo, constructor.
func NewSQLiteStaffRepo(db database.TxQuerier) StaffRepository {
	return &sqliteStaffRepo{db: db}
}

const staffColumns = `id, user_id, name, role, position, avatar, bio, joined_at,
	display_order, is_active, social_links, created_at, updated_at`

func scanStaff(row interface{ Scan(...any) error }) (*models.StaffMember, error) {
	m := &models.StaffMember{}
	var links string
	if err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Role, &m.Position, &m.Avatar, &m.Bio, &m.JoinedAt,
		&m.DisplayOrder, &m.IsActive, &links, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// Bozuk JSON üyeyi listeden düşürmez, sadece linkler boş görünür.
	_ = json.Unmarshal([]byte(links), &m.SocialLinks)
	return m, nil
}

func encodeLinks(l models.SocialLinks) (string, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to encode social links: %w", err)
	}
	return string(b), nil
}

func (r *sqliteStaffRepo) List(ctx context.Context, activeOnly bool) ([]models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY display_order ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	defer rows.Close()

	members := make([]models.StaffMember, 0)
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff members: %w", err)
	}
	return members, nil
}

func (r *sqliteStaffRepo) GetByID(ctx context.Context, id int64) (*models.StaffMember, error) {
	m, err := scanStaff(r.db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return m, nil
}

func (r *sqliteStaffRepo) Create(ctx context.Context, member *models.StaffMember) error {
	links, err := encodeLinks(member.SocialLinks)
	if err != nil {
		return err
	}

	now := member.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	query := `
		INSERT INTO staff_members (user_id, name, role, position, avatar, bio, joined_at,
			display_order, is_active, social_links, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		member.UserID, member.Name, member.Role, member.Position, member.Avatar, member.Bio,
		member.JoinedAt.UTC(), member.DisplayOrder, member.IsActive, links,
		now.UTC(), now.UTC(),
	).Scan(&member.ID)
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *sqliteStaffRepo) Update(ctx context.Context, member *models.StaffMember) error {
	links, err := encodeLinks(member.SocialLinks)
	if err != nil {
		return err
	}
	if member.UpdatedAt.IsZero() {
		member.UpdatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE staff_members SET user_id = ?, name = ?, role = ?, position = ?, avatar = ?,
		bio = ?, joined_at = ?, display_order = ?, is_active = ?, social_links = ?, updated_at = ?
		WHERE id = ?`,
		member.UserID, member.Name, member.Role, member.Position, member.Avatar,
		member.Bio, member.JoinedAt.UTC(), member.DisplayOrder, member.IsActive, links,
		member.UpdatedAt.UTC(), member.ID)
	if err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteStaffRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM staff_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	return expectAffected(result)
}

func (r *sqliteStaffRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM staff_members WHERE is_active = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count staff members: %w", err)
	}
	return count, nil
}
