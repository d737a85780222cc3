package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/models"
)

type StorageService interface {
	EnsureUploadDir() error
	NewWorkspace() (*Workspace, error)
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// NewWorkspace creates a private directory for the files of one screening run.
func (s *storageService) NewWorkspace() (*Workspace, error) {
	if err := s.EnsureUploadDir(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.uploadPath, uuid.New().String())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{Dir: dir}, nil
}

// Workspace holds uploaded files until Cleanup is called.
type Workspace struct {
	Dir   string
	saved int
}

// SaveFile copies an uploaded file into the workspace. The returned document
// keeps the sanitized client filename for display; the on-disk name is
// prefixed with an index so duplicate names do not collide.
func (w *Workspace) SaveFile(file *multipart.FileHeader) (models.Document, error) {
	name := SanitizeFilename(file.Filename)
	w.saved++
	filePath := filepath.Join(w.Dir, fmt.Sprintf("%03d_%s", w.saved, name))

	src, err := file.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return models.Document{}, fmt.Errorf("failed to save file: %w", err)
	}

	return models.NewDocument(name, filePath), nil
}

func (w *Workspace) Cleanup() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeFilename drops any directory part and replaces every character
// outside [a-zA-Z0-9_.-] with an underscore.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
