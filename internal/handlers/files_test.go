package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/model"
)

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestFileStore_SaveAndRemove(t *testing.T) {
	store := NewFileStore(config.UploadConfig{Dir: t.TempDir(), MaxFileSize: 1 << 20})

	req := multipartUpload(t, "file", "scene.png", "png bytes")
	path, size, err := store.Save(req, "file", "illustrations")
	require.NoError(t, err)
	assert.EqualValues(t, len("png bytes"), size)
	assert.Equal(t, ".png", filepath.Ext(path))
	// Stored names are random, never the client's.
	assert.NotContains(t, path, "scene")

	_, err = os.Stat(path)
	require.NoError(t, err)

	// A rejected attach cleans up the stored file.
	store.Remove(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(config.UploadConfig{Dir: t.TempDir(), MaxFileSize: 1 << 20})

	req := multipartUpload(t, "other", "scene.png", "x")
	_, _, err := store.Save(req, "file", "illustrations")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestFileStore_TooLarge(t *testing.T) {
	store := NewFileStore(config.UploadConfig{Dir: t.TempDir(), MaxFileSize: 4})

	req := multipartUpload(t, "file", "big.bin", strings.Repeat("x", 64))
	_, _, err := store.Save(req, "file", "illustrations")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
