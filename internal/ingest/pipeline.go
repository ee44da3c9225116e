// Package ingest walks a runbook directory, parses each document, and
// loads the result into the vector index.
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/vectordb"
	"github.com/runbookops/runbook-agent/internal/walker"
)

// ProgressFunc receives progress updates as documents are processed.
type ProgressFunc func(current, total int, message string)

// Result summarises one pipeline run.
type Result struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []error
	Duration  time.Duration
}

// Pipeline orchestrates the ingestion workflow: walk, parse, embed, store,
// persist. Unchanged documents are skipped via the stored content hashes.
type Pipeline struct {
	index      vectordb.Index
	dataDir    string
	onProgress ProgressFunc
}

// NewPipeline creates a Pipeline that persists the index and its state
// under dataDir.
func NewPipeline(index vectordb.Index, dataDir string) *Pipeline {
	return &Pipeline{index: index, dataDir: dataDir}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// Run ingests every discovered document. A parse or upsert failure for one
// document is recorded and the run continues; the index is persisted at
// the end along with the updated state.
func (p *Pipeline) Run(ctx context.Context, files []walker.FileInfo) (*Result, error) {
	start := time.Now()
	result := &Result{}

	state, err := LoadState(p.dataDir)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	var changed []walker.FileInfo
	for _, f := range files {
		if state.IsChanged(f.RelPath, f.ContentHash) {
			changed = append(changed, f)
		} else {
			result.Skipped++
		}
	}

	if len(changed) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	for i, f := range changed {
		if p.onProgress != nil {
			p.onProgress(i+1, len(changed), f.RelPath)
		}

		raw, err := os.ReadFile(f.Path)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", f.RelPath, err))
			continue
		}

		rb := runbook.Parse(string(raw))
		rb.Path = f.RelPath

		if err := p.index.Upsert(ctx, rb, f.ContentHash); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("index %s: %w", f.RelPath, err))
			continue
		}

		state.Hashes[f.RelPath] = f.ContentHash
		result.Processed++
	}

	if err := p.index.Persist(ctx, p.dataDir); err != nil {
		return result, fmt.Errorf("persist index: %w", err)
	}
	if err := state.Save(p.dataDir); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Prune removes index entries for documents that no longer exist on disk,
// keeping the state file in step.
func (p *Pipeline) Prune(ctx context.Context, files []walker.FileInfo) (int, error) {
	state, err := LoadState(p.dataDir)
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.RelPath] = true
	}

	removed := 0
	for rel := range state.Hashes {
		if present[rel] {
			continue
		}
		if err := p.index.DeleteRunbook(ctx, rel); err != nil {
			return removed, fmt.Errorf("delete %s: %w", rel, err)
		}
		delete(state.Hashes, rel)
		removed++
	}

	if removed > 0 {
		if err := p.index.Persist(ctx, p.dataDir); err != nil {
			return removed, fmt.Errorf("persist index: %w", err)
		}
		if err := state.Save(p.dataDir); err != nil {
			return removed, fmt.Errorf("save state: %w", err)
		}
	}
	return removed, nil
}
