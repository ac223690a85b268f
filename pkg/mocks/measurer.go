package mocks

import (
	"unicode/utf8"

	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/ports"
)

// Measurer is a deterministic ports.TextMeasurer: every rune is
// Advance×size pixels wide, bold text 10% wider.
type Measurer struct {
	Advance float64
}

// NewMeasurer creates a Measurer where each rune is half an em wide.
func NewMeasurer() *Measurer {
	return &Measurer{Advance: 0.5}
}

func (m *Measurer) MeasureText(text string, font fontspec.Font) float64 {
	w := float64(utf8.RuneCountInString(text)) * m.Advance * font.Size
	if font.IsBold() {
		w *= 1.1
	}
	return w
}

var _ ports.TextMeasurer = (*Measurer)(nil)
