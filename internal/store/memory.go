package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/catalog-store/internal/model"
)

// MemoryStore implements Store in memory. It hands out copies so callers
// see the same isolation they would get from re-reading a file.
type MemoryStore struct {
	mu  sync.RWMutex
	doc *model.Document
}

// NewMemoryStore creates an empty MemoryStore. The first Load seeds it
// with the default document.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates a MemoryStore holding a copy of doc.
func NewMemoryStoreWith(doc *model.Document) (*MemoryStore, error) {
	s := NewMemoryStore()
	if err := s.Save(context.Background(), doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns a copy of the stored document.
func (s *MemoryStore) Load(ctx context.Context) (*model.Document, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load document: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		s.doc = model.DefaultDocument()
	}

	doc, err := s.doc.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}

	return doc, nil
}

// Save stores a copy of doc, replacing the previous document.
func (s *MemoryStore) Save(ctx context.Context, doc *model.Document) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save document: %w", ctx.Err())
	default:
	}

	if doc == nil {
		return ErrNilDocument
	}

	stored, err := doc.Clone()
	if err != nil {
		return fmt.Errorf("copy document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = stored

	return nil
}
