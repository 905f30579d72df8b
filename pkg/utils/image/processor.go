package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
)

const (
	MaxImageSize = 10 * 1024 * 1024 // 10MB
)

var (
	AllowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}

	ErrEmptyImage = errors.New("empty image")
)

// Processed is a re-encoded image ready for upload.
type Processed struct {
	Body        *bytes.Buffer
	ContentType string
	Ext         string
}

// Process decodes data and re-encodes it in its own format, dropping
// metadata and recompressing lossy formats.
func Process(data []byte) (*Processed, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(data), MaxImageSize)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	ext := format

	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 85})
		ext = "jpg"
	case "png":
		err = png.Encode(buf, img)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: 85})
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	if err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	return &Processed{
		Body:        buf,
		ContentType: fmt.Sprintf("image/%s", format),
		Ext:         ext,
	}, nil
}
