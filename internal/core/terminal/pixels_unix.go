//go:build unix

package terminal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PixelSize queries the window size in pixels of the terminal on fd.
func PixelSize(fd uintptr) (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrPixelSizeUnavailable, err)
	}
	if ws.Xpixel == 0 || ws.Ypixel == 0 {
		return 0, 0, ErrPixelSizeUnavailable
	}
	return int(ws.Xpixel), int(ws.Ypixel), nil
}
