package terminal

import (
	"errors"
	"os"
)

// ErrPixelSizeUnavailable is returned when the terminal does not report
// its window size in pixels.
var ErrPixelSizeUnavailable = errors.New("terminal pixel size unavailable")

// PixelSizer reports the terminal window size in pixels.
type PixelSizer func() (width, height int, err error)

// StdoutPixels returns a PixelSizer for the terminal attached to stdout.
func StdoutPixels() PixelSizer {
	return func() (int, int, error) {
		return PixelSize(os.Stdout.Fd())
	}
}

// FixedPixels returns a PixelSizer that always reports w x h.
func FixedPixels(w, h int) PixelSizer {
	return func() (int, int, error) {
		if w <= 0 || h <= 0 {
			return 0, 0, ErrPixelSizeUnavailable
		}
		return w, h, nil
	}
}
