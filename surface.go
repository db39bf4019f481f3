package ink

import "image"

// Surface is the paint-surface contract the rasterizer and compositor are
// written against. The core ships the software Pixmap implementation; a
// host embedding the core on a GPU stack injects its own surface and
// mirrors the pixel buffer however it likes.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (w, h int)

	// Clear resets every pixel to fully transparent.
	Clear()

	// Image exposes the backing pixel buffer. The rasterizer scans
	// directly into it; the compositor reads and writes it per pixel.
	Image() *image.RGBA
}
