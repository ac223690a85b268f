package ggrenderer

import (
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/fonts"
	"github.com/user/labelkit/pkg/ports"
)

// Measurer measures text by summing glyph advances of the font book's faces.
// It does not shape, so ligatures and kerning beyond the kern table are
// ignored.
type Measurer struct {
	book *fonts.Book

	mu     sync.Mutex
	parsed map[string]*opentype.Font
}

// NewMeasurer creates a glyph-advance measurer over book.
func NewMeasurer(book *fonts.Book) *Measurer {
	return &Measurer{
		book:   book,
		parsed: make(map[string]*opentype.Font),
	}
}

// MeasureText implements ports.TextMeasurer. Faces that fail to parse
// measure as zero width.
func (m *Measurer) MeasureText(text string, f fontspec.Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}
	face, err := m.face(f)
	if err != nil {
		return 0
	}
	defer face.Close()

	// gg contexts are cheap at 1×1 and not safe for concurrent use.
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(text)
	return w
}

func (m *Measurer) face(f fontspec.Font) (font.Face, error) {
	entry := m.book.Lookup(f)

	m.mu.Lock()
	parsed, ok := m.parsed[entry.ID]
	if !ok {
		var err error
		parsed, err = opentype.Parse(entry.Data)
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("parse font %s: %w", entry.ID, err)
		}
		m.parsed[entry.ID] = parsed
	}
	m.mu.Unlock()

	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// Ensure Measurer implements ports.TextMeasurer
var _ ports.TextMeasurer = (*Measurer)(nil)
