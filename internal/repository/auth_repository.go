package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspress/campus-blog-api/internal/models"
)

// AuthRepository stores credentials, refresh tokens, reset tokens and the
// audit trail.
type AuthRepository struct {
	db *sqlx.DB
}

// NewAuthRepository creates the repository.
func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// CreateCredential persists login credentials for a profile.
func (r *AuthRepository) CreateCredential(ctx context.Context, cred *models.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	const query = `INSERT INTO credentials (profile_id, email, password_hash, created_at, updated_at)
VALUES (:profile_id, :email, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cred); err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// FindCredentialByEmail returns credentials by email address.
func (r *AuthRepository) FindCredentialByEmail(ctx context.Context, email string) (*models.Credential, error) {
	const query = `SELECT profile_id, email, password_hash, created_at, updated_at FROM credentials WHERE email = $1 LIMIT 1`
	var cred models.Credential
	if err := r.db.GetContext(ctx, &cred, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find credential by email: %w", err)
	}
	return &cred, nil
}

// FindCredentialByProfileID returns credentials by profile identifier.
func (r *AuthRepository) FindCredentialByProfileID(ctx context.Context, profileID string) (*models.Credential, error) {
	const query = `SELECT profile_id, email, password_hash, created_at, updated_at FROM credentials WHERE profile_id = $1 LIMIT 1`
	var cred models.Credential
	if err := r.db.GetContext(ctx, &cred, query, profileID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find credential by profile id: %w", err)
	}
	return &cred, nil
}

// UpdatePassword updates the stored password hash.
func (r *AuthRepository) UpdatePassword(ctx context.Context, profileID, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE credentials SET password_hash = $2, updated_at = $3 WHERE profile_id = $1`
	if _, err := r.db.ExecContext(ctx, query, profileID, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *AuthRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, profile_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent)
VALUES (:id, :profile_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *AuthRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, profile_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeProfileRefreshTokens revokes all refresh tokens for a profile.
func (r *AuthRepository) RevokeProfileRefreshTokens(ctx context.Context, profileID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE profile_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, profileID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke profile refresh tokens: %w", err)
	}
	return nil
}

// CreatePasswordResetToken persists a reset token.
func (r *AuthRepository) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO password_reset_tokens (id, profile_id, token, expires_at, used_at, created_at)
VALUES (:id, :profile_id, :token, :expires_at, :used_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create password reset token: %w", err)
	}
	return nil
}

// FindPasswordResetToken returns a reset token by token string.
func (r *AuthRepository) FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	const query = `SELECT id, profile_id, token, expires_at, used_at, created_at FROM password_reset_tokens WHERE token = $1 LIMIT 1`
	var rt models.PasswordResetToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find password reset token: %w", err)
	}
	return &rt, nil
}

// MarkPasswordResetTokenUsed consumes a reset token.
func (r *AuthRepository) MarkPasswordResetTokenUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE password_reset_tokens SET used_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("mark password reset token used: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *AuthRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, profile_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at)
VALUES (:id, :profile_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
