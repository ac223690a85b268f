// Package memdocument provides an in-memory document of SVG elements that
// the host uploads ahead of raster requests.
package memdocument

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/labelkit/pkg/ports"
)

// DefaultFrameInterval approximates one frame at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// Document is a concurrency-safe id → markup registry.
type Document struct {
	mu            sync.RWMutex
	elements      map[string][]byte
	frameInterval time.Duration
}

// New creates an empty Document whose frames last frameInterval.
// A zero interval makes WaitFrame return immediately.
func New(frameInterval time.Duration) *Document {
	return &Document{
		elements:      make(map[string][]byte),
		frameInterval: frameInterval,
	}
}

// WaitFrame sleeps for one frame interval.
func (d *Document) WaitFrame(ctx context.Context) error {
	return WaitFrame(ctx, d.frameInterval)
}

// Element returns a copy of the stored markup.
func (d *Document) Element(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	markup, ok := d.elements[id]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(markup))
	copy(out, markup)
	return out, true, nil
}

// Put stores or replaces the markup for id.
func (d *Document) Put(id string, markup []byte) {
	stored := make([]byte, len(markup))
	copy(stored, markup)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[id] = stored
}

// Remove deletes id.
func (d *Document) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.elements[id]
	delete(d.elements, id)
	return ok
}

// IDs returns the stored ids, sorted.
func (d *Document) IDs(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.elements))
	for id := range d.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// WaitFrame blocks for interval or until ctx is done.
func WaitFrame(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure Document implements ports.ElementStore
var (
	_ ports.ElementStore  = (*Document)(nil)
	_ ports.ElementLister = (*Document)(nil)
)
