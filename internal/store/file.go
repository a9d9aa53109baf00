package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vyrodovalexey/catalog-store/internal/model"
)

// dataFileMode is the permission used when creating the data file.
const dataFileMode = 0o644

// FileStore keeps the document in a single pretty-printed JSON file.
// Every Save truncates and rewrites the file in place.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by path. The file is not
// touched until the first Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the data file. A missing file is replaced by
// the default document, which is written before being returned.
func (s *FileStore) Load(ctx context.Context) (*model.Document, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load document: %w", ctx.Err())
	default:
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := model.DefaultDocument()
		if err := s.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("seed document: %w", err)
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc model.Document
	if err := model.JSON.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", s.path, ErrCorruptDocument, err)
	}
	doc.Normalize()

	return &doc, nil
}

// Save serializes doc and overwrites the data file.
func (s *FileStore) Save(ctx context.Context, doc *model.Document) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save document: %w", ctx.Err())
	default:
	}

	if doc == nil {
		return ErrNilDocument
	}
	doc.Normalize()

	data, err := model.JSON.MarshalIndent(doc, "", model.DocumentIndent)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := os.WriteFile(s.path, data, dataFileMode); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	return nil
}
