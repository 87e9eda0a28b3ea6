package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/streamhive/vidtube/config"
)

// Asset is what an upload leaves behind: the public URL handed to clients
// and the object name needed to delete it again.
type Asset struct {
	URL        string `json:"url"`
	ObjectName string `json:"objectName"`
}

// MediaStore is the external media host. Upload and Delete are network
// calls with no retry policy; callers must compensate on downstream
// failure. ObjectNameFromURL recovers the deletable object name from a
// public URL previously returned by Upload, so a replaced asset can be
// cleaned up when only its stored URL is left.
type MediaStore interface {
	Upload(ctx context.Context, fh *multipart.FileHeader, folder string) (*Asset, error)
	Delete(ctx context.Context, objectName string) error
	ObjectNameFromURL(raw string) (string, error)
}

// New picks the backend from configuration.
func New(ctx context.Context, cfg *config.MediaConfig) (MediaStore, error) {
	switch cfg.Provider {
	case "gcs":
		return NewGCSStore(ctx, cfg)
	case "r2":
		return NewR2Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewFileValidator(cfg *config.MediaConfig) *FileValidator {
	allowedExt := make(map[string]bool, len(cfg.AllowedExts))
	for _, ext := range cfg.AllowedExts {
		allowedExt[strings.ToLower(ext)] = true
	}
	allowedMime := make(map[string]bool, len(cfg.AllowedMimes))
	for _, m := range cfg.AllowedMimes {
		allowedMime[strings.ToLower(m)] = true
	}
	return &FileValidator{
		allowedExt:  allowedExt,
		allowedMime: allowedMime,
		maxSize:     cfg.MaxUploadBytes,
	}
}

// ValidateFile checks size, extension and the sniffed content type, and
// returns the detected mime type.
func (v *FileValidator) ValidateFile(fh *multipart.FileHeader) (string, error) {
	if fh.Size > v.maxSize {
		return "", fmt.Errorf("file too large (max %d MB)", v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !v.allowedExt[ext] {
		return "", fmt.Errorf("invalid file extension")
	}

	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	if _, err = file.Read(buffer); err != nil {
		return "", fmt.Errorf("failed to read file header")
	}
	if _, err = file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("failed to reset file reader")
	}

	detected := strings.ToLower(http.DetectContentType(buffer))
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if !v.allowedMime[detected] {
		return "", fmt.Errorf("invalid file type")
	}
	return detected, nil
}
