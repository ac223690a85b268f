package svgdecoder

import (
	"context"
	"testing"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">
  <rect x="0" y="0" width="5" height="10" fill="#ff0000"/>
  <rect x="5" y="0" width="5" height="10" fill="#0000ff"/>
</svg>`

func TestDecoder_Decode(t *testing.T) {
	img, err := New().Decode(context.Background(), []byte(square), 100, 50)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}

	r, _, b, _ := img.At(20, 25).RGBA()
	if r>>8 < 250 || b>>8 > 5 {
		t.Errorf("expected red on the left, got %v", img.At(20, 25))
	}
	r, _, b, _ = img.At(80, 25).RGBA()
	if b>>8 < 250 || r>>8 > 5 {
		t.Errorf("expected blue on the right, got %v", img.At(80, 25))
	}
}

func TestDecoder_Decode_ViewBoxSize(t *testing.T) {
	img, err := New().Decode(context.Background(), []byte(square), 0, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("expected 10x10, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecoder_Decode_Malformed(t *testing.T) {
	if _, err := New().Decode(context.Background(), []byte("<svg"), 10, 10); err == nil {
		t.Error("expected error for malformed markup")
	}
}

func TestDecoder_Decode_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Decode(ctx, []byte(square), 10, 10); err == nil {
		t.Error("expected error for canceled context")
	}
}
