// Package svgdecoder rasterizes SVG markup in-process with oksvg and rasterx.
package svgdecoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/user/labelkit/pkg/ports"
)

// Decoder implements ports.SVGDecoder without a browser. It supports the SVG
// subset oksvg understands: paths, basic shapes, gradients and strokes, but
// not text or embedded images.
type Decoder struct {
	strict bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithStrict makes unsupported elements a decode error instead of being skipped.
func WithStrict() Option {
	return func(d *Decoder) {
		d.strict = true
	}
}

// New creates a new Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode rasterizes markup onto a transparent width×height bitmap. When the
// hint is not positive the viewBox size is used.
func (d *Decoder) Decode(ctx context.Context, markup []byte, width, height int) (img image.Image, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("rasterize svg: %v", r)
		}
	}()

	mode := oksvg.IgnoreErrorMode
	if d.strict {
		mode = oksvg.StrictErrorMode
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup), mode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	if width <= 0 || height <= 0 {
		width = int(math.Ceil(icon.ViewBox.W))
		height = int(math.Ceil(icon.ViewBox.H))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg has no size")
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rgba, nil
}

// Ensure Decoder implements ports.SVGDecoder
var _ ports.SVGDecoder = (*Decoder)(nil)
