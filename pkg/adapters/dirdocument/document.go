// Package dirdocument exposes a directory of .svg files as a document.
// The element id is the file name without its extension.
package dirdocument

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/labelkit/pkg/adapters/memdocument"
	"github.com/user/labelkit/pkg/ports"
)

// Ext is the file extension of element files.
const Ext = ".svg"

// Document reads elements from dir on every lookup, so edits on disk are
// picked up by the next request.
type Document struct {
	dir           string
	fs            ports.FileSystem
	frameInterval time.Duration
}

// New creates a Document over dir.
func New(dir string, fs ports.FileSystem, frameInterval time.Duration) *Document {
	return &Document{dir: dir, fs: fs, frameInterval: frameInterval}
}

// WaitFrame sleeps for one frame interval.
func (d *Document) WaitFrame(ctx context.Context) error {
	return memdocument.WaitFrame(ctx, d.frameInterval)
}

// Element reads <dir>/<id>.svg. Ids that would leave dir are never found.
func (d *Document) Element(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return nil, false, nil
	}

	path := filepath.Join(d.dir, id+Ext)
	exists, err := d.fs.Exists(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		return nil, false, nil
	}

	markup, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return markup, true, nil
}

// IDs lists the element ids in dir, sorted.
func (d *Document) IDs(ctx context.Context) ([]string, error) {
	names, err := d.fs.ListFiles(d.dir, Ext)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.dir, err)
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return ids, nil
}

// Ensure Document implements ports.Document
var (
	_ ports.Document      = (*Document)(nil)
	_ ports.ElementLister = (*Document)(nil)
)
