// Package media stores uploaded files and serves them back.
package media

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Storage saves uploads below a root directory of an afero filesystem
type Storage struct {
	fs      afero.Fs
	baseURL string
}

// NewStorage roots storage at dir on the OS filesystem
func NewStorage(dir, baseURL string) (*Storage, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return NewStorageFs(afero.NewBasePathFs(osFs, dir), baseURL), nil
}

// NewStorageFs uses fs as the media root, mainly for tests with afero.NewMemMapFs
func NewStorageFs(fs afero.Fs, baseURL string) *Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Storage{fs: fs, baseURL: baseURL}
}

// Save writes r under uploadTo with a fresh unique name that keeps the
// original extension, and returns the stored relative path, e.g. "posts/<uuid>.gif"
func (s *Storage) Save(uploadTo, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := path.Join(uploadTo, uuid.NewString()+ext)

	if err := s.fs.MkdirAll(fsPath(uploadTo), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	f, err := s.fs.Create(fsPath(name))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(fsPath(name))
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return name, nil
}

// Delete removes a stored file; missing files are ignored
func (s *Storage) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := s.fs.Remove(fsPath(name))
	if err != nil && !isNotExist(s.fs, fsPath(name)) {
		return err
	}
	return nil
}

// Open opens a stored file for reading
func (s *Storage) Open(name string) (afero.File, error) {
	return s.fs.Open(fsPath(name))
}

// URL returns the public URL of a stored file
func (s *Storage) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(name, "/")
}

// Handler serves stored files; mount it under the base URL with the prefix stripped.
// Directories are not listed.
func (s *Storage) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.fs.Stat(fsPath(r.URL.Path))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// fsPath anchors a stored name at the filesystem root
func fsPath(name string) string {
	return "/" + strings.TrimPrefix(name, "/")
}

func isNotExist(fs afero.Fs, name string) bool {
	_, err := fs.Stat(name)
	return err != nil
}
