// Package templates provides read-only access to the resume and cover-letter
// LaTeX templates. The catalog directory is owned by the user; the pipeline
// never writes to it.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is one catalog entry. ID is the filename stem; Source is the raw
// LaTeX with \VAR{} placeholders.
type Template struct {
	ID     string
	Source string
}

// NotFoundError is returned when a requested template id is not in the
// catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.ID)
}

// Catalog lists and loads templates from a directory of .tex files.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over the given directory. The directory is
// not required to exist yet; List returns empty until it does.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the ids of all templates in the catalog, sorted.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tex") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".tex"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads a template by id. Ids containing path separators are rejected
// so callers cannot escape the catalog directory.
func (c *Catalog) Load(id string) (*Template, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, &NotFoundError{ID: id}
	}

	path := filepath.Join(c.dir, id+".tex")
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read template %s: %w", id, err)
	}

	return &Template{ID: id, Source: string(source)}, nil
}
