package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/repository"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	Insert(ctx context.Context, profile *models.Profile) (bool, error)
	RepairEmptyRole(ctx context.Context, id string, role models.ProfileRole) (bool, error)
	UpdateRole(ctx context.Context, id string, role models.ProfileRole) error
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ProfileService resolves principals to profiles and handles the explicit
// administrative role change.
type ProfileService struct {
	repo   profileRepository
	audit  auditRecorder
	logger *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(repo profileRepository, audit auditRecorder, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, audit: audit, logger: logger}
}

const usernameCollisionAttempts = 5

var usernameStripRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// Resolve returns the profile for a principal, creating it with role=student
// on first sight. An existing non-empty role is never touched; an empty role
// is repaired to student, the only in-place correction any auth path makes.
// Idempotent under concurrent first-time calls for the same principal.
func (s *ProfileService) Resolve(ctx context.Context, principalID, email string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, principalID)
	if err == nil {
		return s.repairIfRoleMissing(ctx, profile)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	username, err := s.pickUsername(ctx, principalID, email)
	if err != nil {
		return nil, err
	}

	candidate := &models.Profile{
		ID:       principalID,
		Username: username,
		Role:     models.RoleStudent,
	}

	inserted, err := s.repo.Insert(ctx, candidate)
	if err != nil {
		// A username collision between the availability check and the
		// insert. One more attempt with the fallback name.
		if repository.IsUniqueViolation(err) {
			candidate.Username = fallbackUsername(principalID)
			if _, err := s.repo.Insert(ctx, candidate); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrProfileCreation.Code, appErrors.ErrProfileCreation.Status, appErrors.ErrProfileCreation.Message)
			}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrProfileCreation.Code, appErrors.ErrProfileCreation.Status, appErrors.ErrProfileCreation.Message)
		}
	}
	if !inserted {
		s.logger.Debug("profile already created by concurrent resolution", zap.String("profile_id", principalID))
	}

	profile, err = s.repo.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrProfileCreation, "profile absent after creation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload profile")
	}
	return s.repairIfRoleMissing(ctx, profile)
}

// CreateForRegistration creates the profile for a self-registered account
// with the username the registrant chose. Unlike Resolve it does not invent
// an alternative name on collision; registration surfaces the conflict.
func (s *ProfileService) CreateForRegistration(ctx context.Context, principalID, username string, fullName *string) (*models.Profile, error) {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username availability")
	}

	candidate := &models.Profile{
		ID:       principalID,
		Username: username,
		FullName: fullName,
		Role:     models.RoleStudent,
	}
	if _, err := s.repo.Insert(ctx, candidate); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProfileCreation.Code, appErrors.ErrProfileCreation.Status, appErrors.ErrProfileCreation.Message)
	}
	return candidate, nil
}

func (s *ProfileService) repairIfRoleMissing(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.Role != "" {
		return profile, nil
	}
	repaired, err := s.repo.RepairEmptyRole(ctx, profile.ID, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to repair profile role")
	}
	if repaired {
		s.logger.Warn("repaired empty profile role", zap.String("profile_id", profile.ID))
	}
	profile.Role = models.RoleStudent
	return profile, nil
}

func (s *ProfileService) pickUsername(ctx context.Context, principalID, email string) (string, error) {
	base := usernameFromEmail(email)
	if base == "" {
		return fallbackUsername(principalID), nil
	}

	candidate := base
	for attempt := 2; attempt <= usernameCollisionAttempts+1; attempt++ {
		_, err := s.repo.FindByUsername(ctx, candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username availability")
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return fallbackUsername(principalID), nil
}

// usernameFromEmail derives a deterministic username from the email
// local-part. Returns "" when nothing usable remains.
func usernameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(strings.TrimSpace(local))
	local = usernameStripRe.ReplaceAllString(local, "")
	local = strings.Trim(local, "._-")
	if len(local) < 3 {
		return ""
	}
	if len(local) > 50 {
		local = local[:50]
	}
	return local
}

func fallbackUsername(principalID string) string {
	id := strings.ReplaceAll(principalID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "user-" + id
}

// ChangeRole performs the explicit administrative role change, the only path
// allowed to rewrite a non-empty role.
func (s *ProfileService) ChangeRole(ctx context.Context, actor models.Actor, profileID string, role models.ProfileRole) (*models.Profile, error) {
	if !CanPerform(actor, ActionChangeRole, Resource{}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	before, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	if err := s.repo.UpdateRole(ctx, profileID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	if s.audit != nil {
		oldValues, _ := json.Marshal(map[string]string{"role": string(before.Role)})
		newValues, _ := json.Marshal(map[string]string{"role": string(role)})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			ProfileID:  &actor.ID,
			Action:     models.AuditActionRoleChange,
			Resource:   "profile",
			ResourceID: &profileID,
			OldValues:  oldValues,
			NewValues:  newValues,
		}); err != nil {
			s.logger.Warn("failed to record role change audit log", zap.Error(err))
		}
	}

	before.Role = role
	return before, nil
}

// ListProfiles returns profiles for the admin directory.
func (s *ProfileService) ListProfiles(ctx context.Context, actor models.Actor, filter models.ProfileFilter) ([]models.Profile, int, error) {
	if !CanPerform(actor, ActionAdminDashboard, Resource{}) {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, total, nil
}
