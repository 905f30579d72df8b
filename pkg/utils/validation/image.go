// pkg/utils/validation/image.go
package validation

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 25MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

// Panoramas are full equirectangular images, larger than regular photos.
const MaxImageSize = 25 * 1024 * 1024 // 25MB

var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ValidateImage checks an uploaded image by name and size.
func ValidateImage(name string, size int) error {
	if name == "" || size == 0 {
		return ErrFileRequired
	}

	if size > MaxImageSize {
		return ErrFileSize
	}

	ext := filepath.Ext(strings.ToLower(name))
	if !AllowedImageTypes[ext] {
		return ErrFileType
	}

	return nil
}

// Ext returns the lower-cased extension of name without the dot, or
// fallback when name has none.
func Ext(name, fallback string) string {
	ext := strings.TrimPrefix(filepath.Ext(strings.ToLower(name)), ".")
	if ext == "" {
		return fallback
	}
	return ext
}
