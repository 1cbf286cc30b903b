package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
)

func newProfileRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProfileRepositoryInsertReportsConflict(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	profile := &models.Profile{
		ID:       "profile-1",
		Username: "jdoe",
		Role:     models.RoleStudent,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	inserted, err := repo.Insert(context.Background(), profile)
	require.NoError(t, err)
	require.True(t, inserted)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	inserted, err = repo.Insert(context.Background(), profile)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryRepairEmptyRole(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("role IS NULL OR role = ''")).
		WithArgs("profile-1", models.RoleStudent).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repaired, err := repo.RepairEmptyRole(context.Background(), "profile-1", models.RoleStudent)
	require.NoError(t, err)
	require.True(t, repaired)

	mock.ExpectExec(regexp.QuoteMeta("role IS NULL OR role = ''")).
		WithArgs("profile-1", models.RoleStudent).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repaired, err = repo.RepairEmptyRole(context.Background(), "profile-1", models.RoleStudent)
	require.NoError(t, err)
	require.False(t, repaired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpdateRoleMissing(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET role = $2")).
		WithArgs("missing", models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), "missing", models.RoleAdmin)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryListWithRoleFilter(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	rows := sqlmock.NewRows([]string{"id", "username", "full_name", "avatar_url", "role", "created_at"}).
		AddRow("profile-1", "jdoe", nil, nil, "student", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, full_name")).
		WithArgs(models.RoleStudent).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(models.RoleStudent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleStudent
	profiles, total, err := repo.List(context.Background(), models.ProfileFilter{Role: &role})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, profiles, 1)
	require.Equal(t, "jdoe", profiles[0].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain error")))
	require.False(t, IsUniqueViolation(nil))
}
