//go:build !unix

package terminal

// PixelSize is not supported on this platform.
func PixelSize(_ uintptr) (width, height int, err error) {
	return 0, 0, ErrPixelSizeUnavailable
}
