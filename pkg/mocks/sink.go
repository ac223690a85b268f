package mocks

import (
	"image"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu      sync.RWMutex
	enabled bool

	Sources  map[string][]byte
	Surfaces map[string]image.Image // key: requestID + "/" + stage
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:  enabled,
		Sources:  make(map[string][]byte),
		Surfaces: make(map[string]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSource(requestID string, markup []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sources[requestID] = markup
	return nil
}

func (m *DebugSink) SaveSurface(requestID, stage string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Surfaces[requestID+"/"+stage] = img
	return nil
}

// Surface returns a saved surface (for test verification).
func (m *DebugSink) Surface(requestID, stage string) (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.Surfaces[requestID+"/"+stage]
	return img, ok
}

var _ ports.DebugSink = (*DebugSink)(nil)
