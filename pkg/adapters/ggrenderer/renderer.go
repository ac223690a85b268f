// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/labelkit/pkg/ports"
)

// JPEGQuality is used when encoding ports.FormatJPEG.
const JPEGQuality = 90

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new drawing canvas filled with bg.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: JPEGQuality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImageScaled draws an image scaled to the specified dimensions.
// Images already at the target size are drawn without resampling.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		c.dc.DrawImage(img, x, y)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	c.dc.DrawImage(scaled, x, y)
}

// DrawImageRotatedCW translates the origin to the right edge and draws img
// rotated a quarter turn clockwise, so a landscape image of height×width
// exactly covers a width×height canvas.
func (c *Canvas) DrawImageRotatedCW(img image.Image) {
	c.dc.Push()
	defer c.dc.Pop()

	c.dc.Translate(float64(c.dc.Width()), 0)
	c.dc.Rotate(math.Pi / 2)
	b := img.Bounds()
	c.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
}

// Width returns the canvas width.
func (c *Canvas) Width() int {
	return c.dc.Width()
}

// Height returns the canvas height.
func (c *Canvas) Height() int {
	return c.dc.Height()
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
