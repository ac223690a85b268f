// Package mocks provides hand-written test doubles for the ports interfaces.
package mocks

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
}

// NewFileSystem creates an empty mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(p string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(p)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[p]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s", p)
}

func (m *FileSystem) WriteFile(p string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(p, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = data
	m.dirs[path.Dir(p)] = true
	return nil
}

func (m *FileSystem) MkdirAll(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[p] = true
	return nil
}

func (m *FileSystem) Exists(p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[p]
	return isFile || m.dirs[p], nil
}

func (m *FileSystem) ListFiles(dir, ext string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.dirs[dir] {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	var names []string
	for p := range m.files {
		if path.Dir(p) == dir && strings.EqualFold(path.Ext(p), ext) {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

// GetFile returns the contents of a file (for test verification).
func (m *FileSystem) GetFile(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	return data, ok
}

var _ ports.FileSystem = (*FileSystem)(nil)
