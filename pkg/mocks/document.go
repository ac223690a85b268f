package mocks

import (
	"context"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// Document is a mock ports.Document backed by a map.
type Document struct {
	mu       sync.Mutex
	elements map[string][]byte

	WaitFrameFunc func(ctx context.Context) error
	ElementFunc   func(ctx context.Context, id string) ([]byte, bool, error)

	// Track calls for assertions
	WaitFrameCalls int
	ElementCalls   []string
}

// NewDocument creates a mock Document holding the given elements.
func NewDocument(elements map[string]string) *Document {
	d := &Document{elements: make(map[string][]byte)}
	for id, markup := range elements {
		d.elements[id] = []byte(markup)
	}
	return d
}

func (m *Document) WaitFrame(ctx context.Context) error {
	m.mu.Lock()
	m.WaitFrameCalls++
	m.mu.Unlock()
	if m.WaitFrameFunc != nil {
		return m.WaitFrameFunc(ctx)
	}
	return ctx.Err()
}

func (m *Document) Element(ctx context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	m.ElementCalls = append(m.ElementCalls, id)
	m.mu.Unlock()
	if m.ElementFunc != nil {
		return m.ElementFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	markup, ok := m.elements[id]
	return markup, ok, nil
}

func (m *Document) Put(id string, markup []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements[id] = markup
}

func (m *Document) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.elements[id]
	delete(m.elements, id)
	return ok
}

var _ ports.ElementStore = (*Document)(nil)
