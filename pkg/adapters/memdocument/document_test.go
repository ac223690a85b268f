package memdocument

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDocument_PutElementRemove(t *testing.T) {
	doc := New(0)
	ctx := context.Background()

	if _, found, err := doc.Element(ctx, "svg-1"); err != nil || found {
		t.Fatalf("expected missing element, got found=%v err=%v", found, err)
	}

	markup := []byte("<svg/>")
	doc.Put("svg-1", markup)
	markup[1] = 'X'

	got, found, err := doc.Element(ctx, "svg-1")
	if err != nil || !found {
		t.Fatalf("expected element, got found=%v err=%v", found, err)
	}
	if string(got) != "<svg/>" {
		t.Errorf("expected stored copy, got %q", got)
	}

	if !doc.Remove("svg-1") {
		t.Error("expected Remove to report an existing element")
	}
	if doc.Remove("svg-1") {
		t.Error("expected second Remove to report false")
	}
}

func TestDocument_IDs(t *testing.T) {
	doc := New(0)
	doc.Put("b", nil)
	doc.Put("a", nil)

	ids, err := doc.IDs(context.Background())
	if err != nil {
		t.Fatalf("IDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b], got %v", ids)
	}
}

func TestDocument_WaitFrame(t *testing.T) {
	doc := New(10 * time.Millisecond)

	start := time.Now()
	if err := doc.WaitFrame(context.Background()); err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected to wait one frame, waited %v", elapsed)
	}
}

func TestDocument_WaitFrame_Canceled(t *testing.T) {
	doc := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := doc.WaitFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
