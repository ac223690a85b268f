// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/user/labelkit/pkg/ports"
)

// Sink saves debug output to files, one directory per request:
//
//	<baseDir>/<requestID>/source.svg
//	<baseDir>/<requestID>/<stage>.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSource saves the serialized SVG markup of a request.
func (s *Sink) SaveSource(requestID string, markup []byte) error {
	path := filepath.Join(s.requestDir(requestID), "source.svg")
	return s.fs.WriteFile(path, markup)
}

// SaveSurface saves a drawing surface as PNG.
func (s *Sink) SaveSurface(requestID, stage string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG)
	if err != nil {
		return fmt.Errorf("encode %s surface: %w", stage, err)
	}
	path := filepath.Join(s.requestDir(requestID), safeName(stage)+".png")
	return s.fs.WriteFile(path, data)
}

func (s *Sink) requestDir(requestID string) string {
	return filepath.Join(s.baseDir, safeName(requestID))
}

// safeName keeps host-chosen ids from escaping the base directory.
func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		return "_"
	}
	return name
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
