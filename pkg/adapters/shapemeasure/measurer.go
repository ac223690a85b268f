// Package shapemeasure measures text with HarfBuzz shaping from
// go-text/typesetting, so kerning and ligatures count toward the width.
package shapemeasure

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/user/labelkit/pkg/fonts"
	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/ports"
)

// Measurer computes text widths using HarfBuzz shaping over a font book.
type Measurer struct {
	mu      sync.Mutex
	book    *fonts.Book
	fontMap *fontscan.FontMap
	shaper  shaping.HarfbuzzShaper
}

// New creates a Measurer with every face of book registered.
func New(book *fonts.Book) (*Measurer, error) {
	fm := fontscan.NewFontMap(nil)
	for _, f := range book.Faces() {
		if err := fm.AddFont(bytes.NewReader(f.Data), f.ID, f.Family); err != nil {
			return nil, fmt.Errorf("shapemeasure: loading %s: %w", f.ID, err)
		}
	}
	return &Measurer{book: book, fontMap: fm}, nil
}

// MeasureText implements ports.TextMeasurer.
func (m *Measurer) MeasureText(text string, f fontspec.Font) float64 {
	if text == "" || f.Size <= 0 {
		return 0
	}

	families := make([]string, 0, len(f.Families)+2)
	for _, fam := range f.Families {
		families = append(families, m.book.Canonical(fam))
	}
	families = append(families, fonts.FamilyGo, fontscan.SansSerif)

	style := font.StyleNormal
	if f.IsItalic() {
		style = font.StyleItalic
	}

	// FontMap and the shaper keep per-query state.
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fontMap.SetQuery(fontscan.Query{
		Families: families,
		Aspect: font.Aspect{
			Style:  style,
			Weight: font.Weight(f.Weight),
		},
	})
	m.fontMap.SetScript(language.Latin)

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Size:      fixed.Int26_6(f.Size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}

	var total fixed.Int26_6
	for _, split := range shaping.SplitByFace(input, m.fontMap) {
		total += m.shaper.Shape(split).Advance
	}
	return float64(total) / 64.0
}

// Ensure Measurer implements ports.TextMeasurer
var _ ports.TextMeasurer = (*Measurer)(nil)
