package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persister loads and saves named JSON documents. Each local store owns
// exactly one document and rewrites it whole on every mutation.
type Persister interface {
	Load(name string, v any) (bool, error)
	Save(name string, v any) error
}

// FilePersister persists documents as JSON files under a single directory
type FilePersister struct {
	dir string
}

// Ensure FilePersister implements Persister interface
var _ Persister = (*FilePersister)(nil)

// NewFilePersister creates the data directory if needed and returns a
// persister rooted there
func NewFilePersister(dir string) (*FilePersister, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

// Load reads the named document into v. It reports false with a nil error
// when the document does not exist yet (first run).
func (p *FilePersister) Load(name string, v any) (bool, error) {
	data, err := os.ReadFile(p.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", name, err)
	}
	return true, nil
}

// Save writes v as the named document. The write goes through a temp file
// and a rename so a crash mid-write never leaves a torn document.
func (p *FilePersister) Save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", name, err)
	}

	tmp := p.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := os.Rename(tmp, p.path(name)); err != nil {
		return fmt.Errorf("failed to replace document %s: %w", name, err)
	}

	return nil
}

func (p *FilePersister) path(name string) string {
	return filepath.Join(p.dir, name+".json")
}
