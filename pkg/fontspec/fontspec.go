// Package fontspec parses CSS font shorthand strings ("bold 40px Arial, sans-serif")
// into a Font value that the text measurers understand.
package fontspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Style is the font slant.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
)

// Weight is a CSS numeric font weight (100–900).
type Weight int

const (
	WeightLight  Weight = 300
	WeightNormal Weight = 400
	WeightBold   Weight = 700
)

// DefaultSize is the canvas default font size in pixels.
const DefaultSize = 10

// DefaultFamily is used when a font names no family at all.
const DefaultFamily = "sans-serif"

// Font is a parsed font description.
type Font struct {
	Style    Style
	Weight   Weight
	Size     float64 // pixels
	Families []string
}

// Default returns the canvas default font, "10px sans-serif".
func Default() Font {
	return Font{
		Style:    StyleNormal,
		Weight:   WeightNormal,
		Size:     DefaultSize,
		Families: []string{DefaultFamily},
	}
}

// WithSize returns a copy of f at the given pixel size.
func (f Font) WithSize(px float64) Font {
	f.Size = px
	return f
}

// WithWeight returns a copy of f with the given weight.
func (f Font) WithWeight(w Weight) Font {
	f.Weight = w
	return f
}

// IsBold reports whether the weight renders with a bold face.
func (f Font) IsBold() bool {
	return f.Weight >= 600
}

// IsItalic reports whether the font is slanted.
func (f Font) IsItalic() bool {
	return f.Style == StyleItalic
}

// String formats f as CSS font shorthand.
func (f Font) String() string {
	var b strings.Builder
	if f.Style == StyleItalic {
		b.WriteString("italic ")
	}
	switch {
	case f.Weight == WeightBold:
		b.WriteString("bold ")
	case f.Weight != WeightNormal && f.Weight != 0:
		fmt.Fprintf(&b, "%d ", f.Weight)
	}
	b.WriteString(strconv.FormatFloat(f.Size, 'f', -1, 64))
	b.WriteString("px ")
	for i, fam := range f.Families {
		if i > 0 {
			b.WriteString(", ")
		}
		if strings.ContainsAny(fam, " ,") {
			b.WriteString(strconv.Quote(fam))
		} else {
			b.WriteString(fam)
		}
	}
	return b.String()
}

var (
	fontLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
		{Name: "Size", Pattern: `\d+(?:\.\d+)?(?:px|pt|em)`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[,/]`},
	})

	shorthandParser = participle.MustBuild[shorthand](
		participle.Lexer(fontLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
	)

	familyListParser = participle.MustBuild[familyList](
		participle.Lexer(fontLexer),
		participle.Elide("Whitespace"),
	)
)

type shorthand struct {
	Modifiers  []string  `parser:"@( 'italic' | 'oblique' | 'normal' | 'bold' | 'bolder' | 'lighter' | Number )*"`
	Size       string    `parser:"@Size"`
	LineHeight string    `parser:"( '/' @( Size | Number ) )?"`
	Families   []*family `parser:"@@ ( ',' @@ )*"`
}

type familyList struct {
	Families []*family `parser:"@@ ( ',' @@ )*"`
}

type family struct {
	Quoted string   `parser:"  @String"`
	Words  []string `parser:"| @( Ident | Number )+"`
}

func (f *family) name() string {
	if f.Quoted != "" {
		return strings.TrimSpace(f.Quoted[1 : len(f.Quoted)-1])
	}
	return strings.Join(f.Words, " ")
}

// Parse parses CSS font shorthand: [style] [weight] <size><unit>[/line-height] <family>[, <family>...].
// Sizes in pt and em are converted to pixels (1em = 16px).
func Parse(s string) (Font, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default(), nil
	}

	ast, err := shorthandParser.ParseString("", s)
	if err != nil {
		return Default(), fmt.Errorf("fontspec: parse %q: %w", s, err)
	}

	font := Default()
	for _, m := range ast.Modifiers {
		switch strings.ToLower(m) {
		case "italic", "oblique":
			font.Style = StyleItalic
		case "normal":
		case "bold", "bolder":
			font.Weight = WeightBold
		case "lighter":
			font.Weight = WeightLight
		default:
			w, err := strconv.Atoi(m)
			if err != nil || w < 1 || w > 1000 {
				return Default(), fmt.Errorf("fontspec: invalid weight %q", m)
			}
			font.Weight = Weight(w)
		}
	}

	size, err := parseSize(ast.Size)
	if err != nil {
		return Default(), err
	}
	font.Size = size
	font.Families = familyNames(ast.Families)
	return font, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Font {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseFamilies parses a comma-separated family list such as
// `"Noto Sans", Arial, sans-serif`. Unparseable input is split on commas.
func ParseFamilies(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{DefaultFamily}
	}

	ast, err := familyListParser.ParseString("", s)
	if err != nil {
		var out []string
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'`))
			if part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return []string{DefaultFamily}
		}
		return out
	}
	return familyNames(ast.Families)
}

func familyNames(fams []*family) []string {
	out := make([]string, 0, len(fams))
	for _, f := range fams {
		if name := f.name(); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return []string{DefaultFamily}
	}
	return out
}

func parseSize(tok string) (float64, error) {
	unit := tok[len(tok)-2:]
	v, err := strconv.ParseFloat(tok[:len(tok)-2], 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("fontspec: invalid size %q", tok)
	}
	switch unit {
	case "pt":
		return v * 96 / 72, nil
	case "em":
		return v * 16, nil
	default:
		return v, nil
	}
}
