package filesink

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/user/labelkit/pkg/adapters/ggrenderer"
	"github.com/user/labelkit/pkg/mocks"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), ggrenderer.New())

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveSource(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	data := []byte(`<svg></svg>`)
	if err := sink.SaveSource("req-1", data); err != nil {
		t.Fatalf("SaveSource failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "req-1", "source.svg")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveSurface(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	if err := sink.SaveSurface("7", "landscape", img); err != nil {
		t.Fatalf("SaveSurface failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "7", "landscape.png")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if len(saved) < 8 || string(saved[1:4]) != "PNG" {
		t.Error("expected PNG data")
	}
}

func TestSink_SanitizesRequestID(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	if err := sink.SaveSource("../../etc/passwd", []byte("x")); err != nil {
		t.Fatalf("SaveSource failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "______etc_passwd", "source.svg")
	if _, ok := fs.GetFile(expectedPath); !ok {
		t.Errorf("expected sanitized path %s", expectedPath)
	}
}
