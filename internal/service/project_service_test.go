package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type mockProjectRepo struct {
	projects map[string]models.Project
	refs     map[string]int
	deleted  []string
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]models.Project), refs: make(map[string]int)}
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProjectRepo) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	var out []models.Project
	for _, p := range m.projects {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Year != nil && p.Year != *filter.Year {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = "proj-" + project.Name
	}
	m.projects[project.ID] = *project
	return nil
}

func (m *mockProjectRepo) Update(ctx context.Context, project *models.Project) error {
	m.projects[project.ID] = *project
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id string) error {
	delete(m.projects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProjectRepo) CountReferences(ctx context.Context, id string) (int, error) {
	return m.refs[id], nil
}

var (
	projAdmin   = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	projStudent = models.Actor{ID: "student-1", Role: models.RoleStudent}
)

func TestProjectCreateAdminOnly(t *testing.T) {
	repo := newMockProjectRepo()
	svc := NewProjectService(repo, nil, nil)

	_, err := svc.Create(context.Background(), projStudent, models.CreateProjectRequest{Name: "Cohort 2026", Year: 2026})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	project, err := svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Cohort 2026", Year: 2026})
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusOpen, project.Status)
	require.Equal(t, "admin-1", project.AdminID)
}

func TestProjectYearBounds(t *testing.T) {
	svc := NewProjectService(newMockProjectRepo(), nil, nil)

	_, err := svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Too old", Year: 1999})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Too far", Year: 2101})
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Edge", Year: 2100})
	require.NoError(t, err)
}

func TestProjectUpdateAndClose(t *testing.T) {
	repo := newMockProjectRepo()
	svc := NewProjectService(repo, nil, nil)

	project, err := svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Cohort", Year: 2026})
	require.NoError(t, err)

	closed := models.ProjectStatusClosed
	updated, err := svc.Update(context.Background(), projAdmin, project.ID, models.UpdateProjectRequest{Status: &closed})
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusClosed, updated.Status)
}

func TestProjectDeleteRefusedWhileReferenced(t *testing.T) {
	repo := newMockProjectRepo()
	svc := NewProjectService(repo, nil, nil)

	project, err := svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Cohort", Year: 2026})
	require.NoError(t, err)

	repo.refs[project.ID] = 3
	err = svc.Delete(context.Background(), projAdmin, project.ID)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Empty(t, repo.deleted)

	repo.refs[project.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), projAdmin, project.ID))
	require.Equal(t, []string{project.ID}, repo.deleted)
}

func TestProjectDeleteDeniedForStudent(t *testing.T) {
	repo := newMockProjectRepo()
	svc := NewProjectService(repo, nil, nil)

	project, err := svc.Create(context.Background(), projAdmin, models.CreateProjectRequest{Name: "Cohort", Year: 2026})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), projStudent, project.ID)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	require.Empty(t, repo.deleted)
}
