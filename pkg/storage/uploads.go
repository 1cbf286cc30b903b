package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// UploadStore persists gallery files on disk and maps them to public URLs.
// It stands in for the hosted object storage the platform originally used.
type UploadStore struct {
	baseDir       string
	publicBaseURL string
	allowedExts   map[string]struct{}
}

// NewUploadStore ensures the base directory exists and returns a handle.
func NewUploadStore(baseDir, publicBaseURL string, allowedExts []string) (*UploadStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	exts := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &UploadStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		allowedExts:   exts,
	}, nil
}

// Allowed reports whether the extension of the given filename is accepted.
func (s *UploadStore) Allowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	if len(s.allowedExts) == 0 {
		return true
	}
	_, ok := s.allowedExts[ext]
	return ok
}

// Save stores the stream under a random object name keeping the original
// extension and returns the object name with its public URL.
func (s *UploadStore) Save(originalName string, r io.Reader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	object := randomName() + ext

	full := filepath.Join(s.baseDir, object)
	file, err := os.Create(full)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(full)
		return "", "", fmt.Errorf("write upload file: %w", err)
	}

	return object, s.PublicURL(object), nil
}

// PublicURL maps a stored object name to the URL served to clients.
func (s *UploadStore) PublicURL(object string) string {
	return s.publicBaseURL + "/" + path.Clean(object)
}

// Open returns a read-only handle for the stored object.
func (s *UploadStore) Open(object string) (*os.File, error) {
	file, err := os.Open(filepath.Join(s.baseDir, object))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *UploadStore) Delete(object string) error {
	if err := os.Remove(filepath.Join(s.baseDir, object)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Dir exposes the base directory so the router can serve it statically.
func (s *UploadStore) Dir() string {
	return s.baseDir
}

func randomName() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("obj-%x", os.Getpid())
	}
	return hex.EncodeToString(buf)
}
