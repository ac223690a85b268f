package ports

import "github.com/user/labelkit/pkg/fontspec"

// TextMeasurer measures the advance width of a single line of text.
type TextMeasurer interface {
	// MeasureText returns the width in pixels of text rendered with font.
	MeasureText(text string, font fontspec.Font) float64
}

// TextMeasurerFunc adapts a function to TextMeasurer.
type TextMeasurerFunc func(text string, font fontspec.Font) float64

// MeasureText implements TextMeasurer.
func (f TextMeasurerFunc) MeasureText(text string, font fontspec.Font) float64 {
	return f(text, font)
}
