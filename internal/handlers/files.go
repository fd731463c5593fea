package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/model"
)

// FileStore writes uploaded production assets under the configured upload
// directory, one subdirectory per asset family. Stored names are random so
// client-supplied filenames never hit the filesystem.
type FileStore struct {
	dir     string
	maxSize int64
}

func NewFileStore(cfg config.UploadConfig) *FileStore {
	return &FileStore{dir: cfg.Dir, maxSize: cfg.MaxFileSize}
}

// Save reads one multipart file field and writes it to subdir. Returns the
// stored relative path and the byte count.
func (fs *FileStore) Save(r *http.Request, field, subdir string) (string, int64, error) {
	if err := r.ParseMultipartForm(fs.maxSize); err != nil {
		return "", 0, model.NewAppError("INVALID_UPLOAD", "تعذر قراءة الملف المرفوع.", field, model.ErrInvalidInput)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", 0, model.NewAppError("MISSING_FILE", "الملف مطلوب.", field, model.ErrInvalidInput)
	}
	defer file.Close()

	if header.Size > fs.maxSize {
		return "", 0, model.NewAppError("FILE_TOO_LARGE", "حجم الملف يتجاوز الحد المسموح.", field, model.ErrInvalidInput)
	}

	path, size, err := fs.write(file, header, subdir)
	if err != nil {
		return "", 0, fmt.Errorf("FileStore.Save: %w", err)
	}
	return path, size, nil
}

// Remove deletes a stored file. Upload handlers call it when the service
// rejects the attach, so a forbidden or invalid request leaves no orphan on
// disk.
func (fs *FileStore) Remove(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}

func (fs *FileStore) write(file multipart.File, header *multipart.FileHeader, subdir string) (string, int64, error) {
	targetDir := filepath.Join(fs.dir, subdir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", 0, err
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	targetPath := filepath.Join(targetDir, name)

	dst, err := os.Create(targetPath)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(file, fs.maxSize))
	if err != nil {
		os.Remove(targetPath)
		return "", 0, err
	}
	return targetPath, size, nil
}
