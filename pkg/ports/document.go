// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// Document abstracts the page that holds the label's SVG elements.
type Document interface {
	// WaitFrame blocks until the document has produced one rendering frame.
	// Elements inserted just before a request are guaranteed to be visible
	// after it returns.
	WaitFrame(ctx context.Context) error

	// Element returns the serialized markup of the element with the given id.
	// found is false when no such element exists.
	Element(ctx context.Context, id string) (markup []byte, found bool, err error)
}

// ElementStore is a Document whose elements can be replaced by the host.
type ElementStore interface {
	Document

	// Put stores or replaces the markup for id.
	Put(id string, markup []byte)

	// Remove deletes id. It reports whether the element existed.
	Remove(id string) bool
}

// ElementLister is implemented by documents that can enumerate their elements.
type ElementLister interface {
	// IDs returns the ids of all elements, sorted.
	IDs(ctx context.Context) ([]string, error)
}
