package overlay

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImageFormat is returned when an image's pixel dimensions
// cannot be determined.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// ProbeFunc reports the pixel dimensions of the image at path.
type ProbeFunc func(path string) (width, height int, err error)

// ProbeFile decodes only the header of the image at path.
func ProbeFile(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %w", ErrUnsupportedImageFormat, path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s: empty image", ErrUnsupportedImageFormat, path)
	}
	return cfg.Width, cfg.Height, nil
}
