package shapemeasure

import (
	"math"
	"testing"

	"github.com/user/labelkit/pkg/adapters/ggrenderer"
	"github.com/user/labelkit/pkg/fonts"
	"github.com/user/labelkit/pkg/fontspec"
)

func newMeasurer(t *testing.T) *Measurer {
	t.Helper()
	m, err := New(fonts.NewBook())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestMeasurer_MeasureText(t *testing.T) {
	m := newMeasurer(t)
	regular := fontspec.MustParse("20px sans-serif")

	if w := m.MeasureText("", regular); w != 0 {
		t.Errorf("expected 0 for empty text, got %v", w)
	}

	short := m.MeasureText("Hello", regular)
	long := m.MeasureText("Hello, World", regular)
	if short <= 0 || long <= short {
		t.Errorf("expected 0 < %v < %v", short, long)
	}

	doubled := m.MeasureText("Hello", regular.WithSize(40))
	if math.Abs(doubled-2*short) > 1 {
		t.Errorf("expected width to scale linearly: %v at 20px, %v at 40px", short, doubled)
	}
}

func TestMeasurer_BoldIsWider(t *testing.T) {
	m := newMeasurer(t)
	regular := fontspec.MustParse("20px Go")
	bold := fontspec.MustParse("bold 20px Go")

	if r, b := m.MeasureText("Recipe card", regular), m.MeasureText("Recipe card", bold); b <= r {
		t.Errorf("expected bold (%v) wider than regular (%v)", b, r)
	}
}

func TestMeasurer_UnknownFamilyFallsBack(t *testing.T) {
	m := newMeasurer(t)
	known := m.MeasureText("Label", fontspec.MustParse("16px Go"))
	unknown := m.MeasureText("Label", fontspec.MustParse(`16px "No Such Font"`))

	if unknown <= 0 {
		t.Fatalf("expected fallback width, got %v", unknown)
	}
	if math.Abs(known-unknown) > 0.01 {
		t.Errorf("expected fallback to the Go family: %v vs %v", known, unknown)
	}
}

func TestMeasurer_AgreesWithGlyphMeasurer(t *testing.T) {
	book := fonts.NewBook()
	shaped, err := New(book)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	glyph := ggrenderer.NewMeasurer(book)
	f := fontspec.MustParse("24px Go")

	// Plain Latin text has no ligatures in the Go fonts.
	a, b := shaped.MeasureText("Pancakes", f), glyph.MeasureText("Pancakes", f)
	if math.Abs(a-b) > 0.05*b {
		t.Errorf("expected shaping (%v) and glyph (%v) widths to agree within 5%%", a, b)
	}
}
