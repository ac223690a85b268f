// Package fonts holds the font files available to the text measurers.
//
// A Book always contains the Go font families (embedded through
// golang.org/x/image/font/gofont) so measurements are reproducible on hosts
// without system fonts. Additional TTF/OTF files can be registered from disk.
package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/user/labelkit/pkg/fontspec"
	"github.com/user/labelkit/pkg/ports"
)

const (
	// FamilyGo is the embedded proportional family.
	FamilyGo = "Go"
	// FamilyGoMono is the embedded monospace family.
	FamilyGoMono = "Go Mono"
)

// Face is one font file within a family.
type Face struct {
	ID     string
	Family string
	Bold   bool
	Italic bool
	Data   []byte
}

// Book is an ordered collection of faces plus generic family aliases.
// Later registrations win over earlier ones for the same family and aspect.
type Book struct {
	faces   []Face
	aliases map[string]string
}

// NewBook returns a Book with the embedded Go families registered.
func NewBook() *Book {
	b := &Book{
		aliases: map[string]string{
			"sans-serif": FamilyGo,
			"serif":      FamilyGo,
			"system-ui":  FamilyGo,
			"monospace":  FamilyGoMono,
		},
	}
	b.add(Face{ID: "go-regular", Family: FamilyGo, Data: goregular.TTF})
	b.add(Face{ID: "go-bold", Family: FamilyGo, Bold: true, Data: gobold.TTF})
	b.add(Face{ID: "go-italic", Family: FamilyGo, Italic: true, Data: goitalic.TTF})
	b.add(Face{ID: "go-bolditalic", Family: FamilyGo, Bold: true, Italic: true, Data: gobolditalic.TTF})
	b.add(Face{ID: "gomono-regular", Family: FamilyGoMono, Data: gomono.TTF})
	b.add(Face{ID: "gomono-bold", Family: FamilyGoMono, Bold: true, Data: gomonobold.TTF})
	b.add(Face{ID: "gomono-italic", Family: FamilyGoMono, Italic: true, Data: gomonoitalic.TTF})
	b.add(Face{ID: "gomono-bolditalic", Family: FamilyGoMono, Bold: true, Italic: true, Data: gomonobolditalic.TTF})
	return b
}

func (b *Book) add(f Face) {
	b.faces = append(b.faces, f)
}

// Source describes a font file on disk to register.
type Source struct {
	Family string
	Path   string
	Bold   bool
	Italic bool
}

// Register reads each source through fs and adds it to the book.
func (b *Book) Register(fs ports.FileSystem, sources ...Source) error {
	for i, src := range sources {
		if src.Family == "" {
			return fmt.Errorf("fonts: source %d (%s) has no family", i, src.Path)
		}
		data, err := fs.ReadFile(src.Path)
		if err != nil {
			return fmt.Errorf("fonts: reading %s: %w", src.Path, err)
		}
		b.add(Face{
			ID:     fmt.Sprintf("custom-%d-%s", i, src.Family),
			Family: src.Family,
			Bold:   src.Bold,
			Italic: src.Italic,
			Data:   data,
		})
	}
	return nil
}

// Alias maps a generic or substitute family name to a registered family.
func (b *Book) Alias(name, family string) {
	b.aliases[strings.ToLower(name)] = family
}

// Faces returns all registered faces in registration order.
func (b *Book) Faces() []Face {
	out := make([]Face, len(b.faces))
	copy(out, b.faces)
	return out
}

// Canonical resolves aliases. Unknown names are returned unchanged.
func (b *Book) Canonical(family string) string {
	if target, ok := b.aliases[strings.ToLower(family)]; ok {
		return target
	}
	return family
}

// Lookup picks the face for font: the first listed family that has any face
// wins, falling back to FamilyGo. Within a family the closest aspect wins.
func (b *Book) Lookup(font fontspec.Font) Face {
	for _, fam := range font.Families {
		if face, ok := b.lookupFamily(b.Canonical(fam), font.IsBold(), font.IsItalic()); ok {
			return face
		}
	}
	face, _ := b.lookupFamily(FamilyGo, font.IsBold(), font.IsItalic())
	return face
}

func (b *Book) lookupFamily(family string, bold, italic bool) (Face, bool) {
	best, bestScore := Face{}, -1
	for i := len(b.faces) - 1; i >= 0; i-- {
		f := b.faces[i]
		if !strings.EqualFold(f.Family, family) {
			continue
		}
		score := 0
		if f.Bold == bold {
			score += 2
		}
		if f.Italic == italic {
			score++
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	return best, bestScore >= 0
}
