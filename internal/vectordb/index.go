package vectordb

import (
	"context"

	"github.com/runbookops/runbook-agent/internal/runbook"
)

// EntryMetadata holds the provenance of one indexed entry.
type EntryMetadata struct {
	RunbookPath string // document identity
	Section     string // section name, "" for the whole-document entry
	Title       string
	Severity    string
	ContentHash string
	Seq         int64 // insertion order, used for deterministic tie-breaks
}

// Entry is one indexed record at document or section granularity. Content
// is the exact text that produced the vector, kept for provenance.
type Entry struct {
	ID       string
	Content  string
	Metadata EntryMetadata
}

// SearchResult pairs an entry with its cosine similarity to the query.
type SearchResult struct {
	Entry      Entry
	Similarity float32
}

// Index stores embedded runbook content and answers nearest-neighbour
// queries over it.
type Index interface {
	// Upsert replaces every entry derived from the runbook's identity with
	// freshly embedded entries: one per section plus one whole-document
	// entry. It is idempotent and safe to repeat; concurrent calls for the
	// same identity are serialized.
	Upsert(ctx context.Context, rb *runbook.Runbook, contentHash string) error

	// Query returns the top k entries ranked by descending cosine
	// similarity, ties broken by insertion order (earliest first). It
	// fails with ErrEmbeddingUnavailable when the embedder errors.
	Query(ctx context.Context, text string, k int) ([]SearchResult, error)

	// DeleteRunbook removes every entry for the given document identity.
	DeleteRunbook(ctx context.Context, path string) error

	// Persist saves the index under dir.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from dir. Failure is reported as
	// ErrIndexCorrupted and is scoped to this operation.
	Load(ctx context.Context, dir string) error

	// Count returns the number of entries.
	Count() int
}
