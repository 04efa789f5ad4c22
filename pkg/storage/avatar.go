package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/pkg/logger"
	"go.uber.org/zap"
)

const DefaultMaxAvatarSize = 10 << 20 // 10MB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AvatarStore keeps uploaded avatars on local disk. Stored filenames are
// "<unixtime>_<original>"; file writes are not transactional with the
// database row that references them.
type AvatarStore struct {
	dir     string
	baseURL string
	maxSize int64
	now     func() time.Time
}

func NewAvatarStore(dir, baseURL string, maxSize int64) (*AvatarStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxAvatarSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &AvatarStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize, now: time.Now}, nil
}

// Save validates and persists an uploaded avatar, returning the stored
// filename.
func (s *AvatarStore) Save(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxSize {
		return "", fmt.Errorf("avatar exceeds %d bytes", s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("avatar type %q not allowed", ext)
	}

	// Strip any path components a hostile client sends along.
	original := filepath.Base(file.Filename)
	filename := fmt.Sprintf("%d_%s", s.now().Unix(), original)

	if err := c.SaveUploadedFile(file, filepath.Join(s.dir, filename)); err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}

	return filename, nil
}

// Delete removes a stored avatar. Missing files are not an error.
func (s *AvatarStore) Delete(filename string) error {
	if filename == "" {
		return nil
	}

	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.GetLogger().Warn("Failed to delete avatar file",
			zap.String("filename", filename),
			zap.Error(err))
		return err
	}
	return nil
}

// URL resolves a stored filename to its public URL. Empty filenames map to
// an empty URL.
func (s *AvatarStore) URL(filename string) string {
	if filename == "" {
		return ""
	}
	return s.baseURL + "/storage/avatars/" + filename
}

// Dir exposes the on-disk directory for static file serving.
func (s *AvatarStore) Dir() string {
	return s.dir
}
