package mocks

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// Decoder is a mock ports.SVGDecoder. By default it returns a solid image of
// Fill at the hinted size.
type Decoder struct {
	mu         sync.Mutex
	Fill       color.Color
	DecodeFunc func(ctx context.Context, markup []byte, width, height int) (image.Image, error)

	Calls []struct {
		Markup string
		Width  int
		Height int
	}
}

// NewDecoder creates a mock Decoder that paints every image with fill.
func NewDecoder(fill color.Color) *Decoder {
	return &Decoder{Fill: fill}
}

func (m *Decoder) Decode(ctx context.Context, markup []byte, width, height int) (image.Image, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, struct {
		Markup string
		Width  int
		Height int
	}{string(markup), width, height})
	m.mu.Unlock()

	if m.DecodeFunc != nil {
		return m.DecodeFunc(ctx, markup, width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(m.Fill), image.Point{}, draw.Src)
	return img, nil
}

var _ ports.SVGDecoder = (*Decoder)(nil)
