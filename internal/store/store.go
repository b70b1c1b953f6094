package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dmaia/ledger-service/internal/models"
)

// Store persists the whole ledger document as a single JSON blob on disk.
// Derived views are never written; a load/save cycle reproduces the same
// persisted fields it read.
type Store struct {
	path string
	log  *logrus.Logger
}

// NewStore initializes a store for the given file path
func NewStore(path string, log *logrus.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the document from disk. A missing file yields a fresh empty
// document so first runs need no setup step.
func (s *Store) Load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.Infof("Data file %s not found, starting empty", s.path)
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return doc, nil
}

// Save writes the document atomically: marshal, write to a temp file in the
// same directory, rename over the target. A crash mid-save leaves the
// previous blob intact.
func (s *Store) Save(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// Export returns the serialized document for the export endpoint.
func (s *Store) Export(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Import parses a previously exported blob.
func (s *Store) Import(data []byte) (*models.Document, error) {
	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse imported document: %w", err)
	}
	return doc, nil
}
