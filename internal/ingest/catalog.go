package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/walker"
)

// Catalog serves parsed runbooks straight from the source directory. It is
// the read path for analysis and for resolving retrieved index entries
// back to their documents; document identity is the path relative to the
// catalog root, matching what ingestion stored.
type Catalog struct {
	root    string
	include []string
	exclude []string
}

// NewCatalog creates a Catalog over the given runbook directory.
func NewCatalog(root string, include, exclude []string) *Catalog {
	return &Catalog{root: root, include: include, exclude: exclude}
}

// List walks the catalog root and parses every runbook, sorted by path.
func (c *Catalog) List(ctx context.Context) ([]*runbook.Runbook, error) {
	files, err := walker.Walk(walker.Config{
		RootDir: c.root,
		Include: c.include,
		Exclude: c.exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", c.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	books := make([]*runbook.Runbook, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rb, err := c.parse(f.Path, f.RelPath)
		if err != nil {
			return nil, err
		}
		books = append(books, rb)
	}
	return books, nil
}

// Get parses a single runbook by its path relative to the catalog root.
func (c *Catalog) Get(_ context.Context, relPath string) (*runbook.Runbook, error) {
	return c.parse(filepath.Join(c.root, filepath.FromSlash(relPath)), relPath)
}

func (c *Catalog) parse(absPath, relPath string) (*runbook.Runbook, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading runbook %s: %w", relPath, err)
	}
	rb := runbook.Parse(string(raw))
	rb.Path = relPath
	return rb, nil
}
