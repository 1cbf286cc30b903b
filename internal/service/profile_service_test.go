package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type mockProfileRepo struct {
	profiles map[string]models.Profile
	inserted []string
	repaired []string
	failFind bool
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if m.failFind {
		return nil, sql.ErrNoRows
	}
	if p, ok := m.profiles[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) Insert(ctx context.Context, profile *models.Profile) (bool, error) {
	if m.profiles == nil {
		m.profiles = make(map[string]models.Profile)
	}
	if _, ok := m.profiles[profile.ID]; ok {
		return false, nil
	}
	m.profiles[profile.ID] = *profile
	m.inserted = append(m.inserted, profile.ID)
	return true, nil
}

func (m *mockProfileRepo) RepairEmptyRole(ctx context.Context, id string, role models.ProfileRole) (bool, error) {
	p, ok := m.profiles[id]
	if !ok || p.Role != "" {
		return false, nil
	}
	p.Role = role
	m.profiles[id] = p
	m.repaired = append(m.repaired, id)
	return true, nil
}

func (m *mockProfileRepo) UpdateRole(ctx context.Context, id string, role models.ProfileRole) error {
	p, ok := m.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Role = role
	m.profiles[id] = p
	return nil
}

func (m *mockProfileRepo) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	var out []models.Profile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockAudit struct {
	logs []models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func TestProfileResolveCreatesStudentOnFirstSight(t *testing.T) {
	repo := &mockProfileRepo{}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Resolve(context.Background(), "principal-1", "Jane.Doe@uni.edu")
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, profile.Role)
	require.Equal(t, "jane.doe", profile.Username)
	require.Equal(t, []string{"principal-1"}, repo.inserted)
}

func TestProfileResolveIsIdempotent(t *testing.T) {
	repo := &mockProfileRepo{}
	svc := NewProfileService(repo, nil, nil)

	first, err := svc.Resolve(context.Background(), "principal-1", "jane@uni.edu")
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), "principal-1", "jane@uni.edu")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Username, second.Username)
	require.Len(t, repo.inserted, 1)
}

func TestProfileResolveNeverOverwritesRole(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{
		"principal-1": {ID: "principal-1", Username: "jane", Role: models.RoleAdmin},
	}}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Resolve(context.Background(), "principal-1", "jane@uni.edu")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, profile.Role)
	require.Empty(t, repo.repaired)
}

func TestProfileResolveRepairsEmptyRole(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{
		"principal-1": {ID: "principal-1", Username: "jane"},
	}}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Resolve(context.Background(), "principal-1", "jane@uni.edu")
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, profile.Role)
	require.Equal(t, []string{"principal-1"}, repo.repaired)
}

func TestProfileResolveSuffixesUsernameOnCollision(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{
		"other": {ID: "other", Username: "jane", Role: models.RoleStudent},
	}}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Resolve(context.Background(), "principal-1", "jane@uni.edu")
	require.NoError(t, err)
	require.Equal(t, "jane-2", profile.Username)
}

func TestProfileResolveFallbackUsername(t *testing.T) {
	repo := &mockProfileRepo{}
	svc := NewProfileService(repo, nil, nil)

	profile, err := svc.Resolve(context.Background(), "abcdef12-3456", "!!@uni.edu")
	require.NoError(t, err)
	require.Equal(t, "user-abcdef12", profile.Username)
}

func TestProfileChangeRoleAdminOnly(t *testing.T) {
	repo := &mockProfileRepo{profiles: map[string]models.Profile{
		"target": {ID: "target", Username: "t", Role: models.RoleStudent},
	}}
	audit := &mockAudit{}
	svc := NewProfileService(repo, audit, nil)

	_, err := svc.ChangeRole(context.Background(), models.Actor{ID: "s-1", Role: models.RoleStudent}, "target", models.RoleAdmin)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	updated, err := svc.ChangeRole(context.Background(), models.Actor{ID: "a-1", Role: models.RoleAdmin}, "target", models.RoleViewer)
	require.NoError(t, err)
	require.Equal(t, models.RoleViewer, updated.Role)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionRoleChange, audit.logs[0].Action)
}

func TestProfileChangeRoleRejectsUnknownRole(t *testing.T) {
	svc := NewProfileService(&mockProfileRepo{}, nil, nil)
	_, err := svc.ChangeRole(context.Background(), models.Actor{ID: "a-1", Role: models.RoleAdmin}, "target", "owner")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUsernameFromEmail(t *testing.T) {
	require.Equal(t, "jane.doe", usernameFromEmail("Jane.Doe@uni.edu"))
	require.Equal(t, "", usernameFromEmail("a@uni.edu"))
	require.Equal(t, "", usernameFromEmail("!!!@uni.edu"))
	require.Equal(t, "jane-doe", usernameFromEmail("jane-doe@uni.edu"))
}
