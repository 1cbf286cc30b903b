package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuspress/campus-blog-api/internal/models"
)

// ProfileRepository provides persistence for profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns a profile by identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, username, full_name, avatar_url, role, created_at FROM profiles WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// FindByUsername returns a profile by username.
func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	const query = `SELECT id, username, full_name, avatar_url, role, created_at FROM profiles WHERE username = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by username: %w", err)
	}
	return &profile, nil
}

// Insert creates a profile if none exists for the id. It reports whether a
// row was actually inserted, so concurrent first-time resolutions stay
// idempotent.
func (r *ProfileRepository) Insert(ctx context.Context, profile *models.Profile) (bool, error) {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO profiles (id, username, full_name, avatar_url, role, created_at)
VALUES (:id, :username, :full_name, :avatar_url, :role, :created_at)
ON CONFLICT (id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return false, fmt.Errorf("insert profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert profile rows affected: %w", err)
	}
	return affected > 0, nil
}

// RepairEmptyRole sets role to the given value only when the stored role is
// missing. It reports whether a repair happened.
func (r *ProfileRepository) RepairEmptyRole(ctx context.Context, id string, role models.ProfileRole) (bool, error) {
	const query = `UPDATE profiles SET role = $2 WHERE id = $1 AND (role IS NULL OR role = '')`
	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return false, fmt.Errorf("repair profile role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repair profile role rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateRole performs the explicit administrative role change.
func (r *ProfileRepository) UpdateRole(ctx context.Context, id string, role models.ProfileRole) error {
	const query = `UPDATE profiles SET role = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile role rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns profiles based on filters with total count.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	baseQuery := `FROM profiles WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(username) LIKE $%d OR LOWER(full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, username, full_name, avatar_url, role, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	return profiles, total, nil
}

// CountByRole returns profile counts grouped by role.
func (r *ProfileRepository) CountByRole(ctx context.Context) (map[models.ProfileRole]int, error) {
	const query = `SELECT role, COUNT(*) AS count FROM profiles GROUP BY role`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count profiles by role: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.ProfileRole]int)
	for rows.Next() {
		var role models.ProfileRole
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scan profile role count: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile role counts: %w", err)
	}
	return counts, nil
}

// IsUniqueViolation reports whether the error is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
