// Package storage keeps downloaded bill images in per-user folders under
// the configured bills directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

type ImageStore struct {
	root string
}

func NewImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bills dir: %w", err)
	}
	return &ImageStore{root: root}, nil
}

// SaveImage writes the image under <root>/<userID>/bill_<uuid>.<ext> and
// returns the full path.
func (s *ImageStore) SaveImage(userID int64, data []byte, ext string) (string, error) {
	if ext == "" {
		ext = "jpg"
	}

	userDir := filepath.Join(s.root, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user dir: %w", err)
	}

	path := filepath.Join(userDir, fmt.Sprintf("bill_%s.%s", uuid.New().String(), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// Remove deletes a stored image. A missing file is not an error: the record
// may outlive its image.
func (s *ImageStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// Exists reports whether the stored image is still on disk.
func (s *ImageStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
