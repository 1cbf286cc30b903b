package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
)

type mockGalleryRepo struct {
	images  map[string]models.GalleryImage
	deleted []string
}

func newMockGalleryRepo() *mockGalleryRepo {
	return &mockGalleryRepo{images: make(map[string]models.GalleryImage)}
}

func (m *mockGalleryRepo) GetByID(ctx context.Context, id string) (*models.GalleryImage, error) {
	if img, ok := m.images[id]; ok {
		return &img, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGalleryRepo) List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryImage, int, error) {
	var out []models.GalleryImage
	for _, img := range m.images {
		if filter.ProjectID != nil && img.ProjectID != *filter.ProjectID {
			continue
		}
		out = append(out, img)
	}
	return out, len(out), nil
}

func (m *mockGalleryRepo) Create(ctx context.Context, image *models.GalleryImage) error {
	if image.ID == "" {
		image.ID = "img-" + image.ObjectName
	}
	m.images[image.ID] = *image
	return nil
}

func (m *mockGalleryRepo) Delete(ctx context.Context, id string) error {
	delete(m.images, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockUploadStore struct {
	saved   []string
	removed []string
}

func (m *mockUploadStore) Allowed(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".png") || strings.HasSuffix(strings.ToLower(filename), ".jpg")
}

func (m *mockUploadStore) Save(originalName string, r io.Reader) (string, string, error) {
	object := "stored-" + originalName
	m.saved = append(m.saved, object)
	return object, "http://localhost/uploads/" + object, nil
}

func (m *mockUploadStore) Delete(object string) error {
	m.removed = append(m.removed, object)
	return nil
}

func galleryFixture() (*GalleryService, *mockGalleryRepo, *mockUploadStore) {
	repo := newMockGalleryRepo()
	store := &mockUploadStore{}
	posts := &mockProjectGetterPosts{posts: map[string]models.BlogPost{
		"post-live": {ID: "post-live", AuthorID: "student-1", Status: models.PostStatusPublished},
	}}
	projects := &mockProjectGetter{projects: map[string]models.Project{
		"proj-open":   {ID: "proj-open", Status: models.ProjectStatusOpen},
		"proj-closed": {ID: "proj-closed", Status: models.ProjectStatusClosed},
	}}
	svc := NewGalleryService(repo, posts, projects, store, nil, nil, 1<<20)
	return svc, repo, store
}

var galleryStudent = models.Actor{ID: "student-1", Role: models.RoleStudent}

func TestGalleryUpload(t *testing.T) {
	svc, repo, store := galleryFixture()

	postID := "post-live"
	image, err := svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:   "photo.png",
		File:       strings.NewReader("pixels"),
		Size:       6,
		ProjectID:  "proj-open",
		BlogPostID: &postID,
	})
	require.NoError(t, err)
	require.Equal(t, "http://localhost/uploads/stored-photo.png", image.URL)
	require.Equal(t, "proj-open", image.ProjectID)
	require.Len(t, repo.images, 1)
	require.Len(t, store.saved, 1)
}

func TestGalleryUploadRequiresOpenProject(t *testing.T) {
	svc, _, _ := galleryFixture()

	_, err := svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:  "photo.png",
		File:      strings.NewReader("pixels"),
		ProjectID: "proj-closed",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	_, err = svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:  "photo.png",
		File:      strings.NewReader("pixels"),
		ProjectID: "proj-missing",
	})
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGalleryUploadRejectsBadFiles(t *testing.T) {
	svc, _, _ := galleryFixture()

	_, err := svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:  "malware.exe",
		File:      strings.NewReader("nope"),
		ProjectID: "proj-open",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:  "huge.png",
		File:      strings.NewReader("x"),
		Size:      2 << 20,
		ProjectID: "proj-open",
	})
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGalleryDeleteOwnerOrAdmin(t *testing.T) {
	svc, repo, store := galleryFixture()

	image, err := svc.Upload(context.Background(), galleryStudent, GalleryUpload{
		Filename:  "photo.jpg",
		File:      strings.NewReader("pixels"),
		ProjectID: "proj-open",
	})
	require.NoError(t, err)

	other := models.Actor{ID: "student-2", Role: models.RoleStudent}
	err = svc.Delete(context.Background(), other, image.ID)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), galleryStudent, image.ID))
	require.Equal(t, []string{image.ID}, repo.deleted)
	require.Equal(t, []string{image.ObjectName}, store.removed)
}
