package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential stores the login secret for a profile. It is the in-repo
// realization of the hosted auth provider the platform originally depended on.
type Credential struct {
	ProfileID    string    `db:"profile_id" json:"profile_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	ProfileID string     `db:"profile_id" json:"profile_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// PasswordResetToken is a single-use opaque token with a TTL.
type PasswordResetToken struct {
	ID        string     `db:"id" json:"id"`
	ProfileID string     `db:"profile_id" json:"profile_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// RegisterRequest holds the self-service sign-up payload.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	FullName  *string `json:"full_name" validate:"omitempty,max=100"`
	IP        string  `json:"-"`
	UserAgent string  `json:"-"`
}

// LoginRequest holds credentials for authenticating a principal.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and profile info.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	Profile      ProfileInfo `json:"profile"`
	IssuedAt     time.Time   `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ResetPasswordRequest payload for initiating reset flow.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetPasswordRequest completes reset flow.
type ConfirmResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ProfileInfo describes the authenticated profile in responses.
type ProfileInfo struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	FullName string      `json:"full_name,omitempty"`
	Role     ProfileRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	ProfileID string      `json:"profile_id"`
	Role      ProfileRole `json:"role"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	jwt.RegisteredClaims
}

// Actor derives the policy actor from the token claims.
func (c *JWTClaims) Actor() Actor {
	return Actor{ID: c.ProfileID, Role: c.Role}
}
