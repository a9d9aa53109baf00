// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/catalog-store/internal/model"
)

// Store errors.
var (
	ErrCorruptDocument = errors.New("document is not valid JSON")
	ErrNilDocument     = errors.New("document cannot be nil")
)

// Store loads and saves the whole catalog document at once.
// Implementations do not lock; callers serialize writes if they need to.
type Store interface {
	// Load returns the current document, seeding the default one when
	// nothing has been stored yet.
	Load(ctx context.Context) (*model.Document, error)

	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc *model.Document) error
}
