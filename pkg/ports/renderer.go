package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts the off-screen drawing surfaces used for rasterization.
type Renderer interface {
	// CreateCanvas creates a surface of the given size filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat) ([]byte, error)
}

// Canvas provides the drawing operations of a 2D surface.
type Canvas interface {
	// DrawImageScaled draws img stretched to fill the rectangle at (x, y).
	DrawImageScaled(img image.Image, x, y, width, height int)

	// DrawImageRotatedCW draws img rotated 90° clockwise about the canvas
	// origin after translating the origin to (canvas width, 0).
	DrawImageRotatedCW(img image.Image)

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// ToImage returns the surface as an image.Image.
	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
	FormatJPEG
)

// MIMEType returns the media type used in data URLs for the format.
func (f ImageFormat) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}
