package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	chromem "github.com/philippgille/chromem-go"

	"github.com/runbookops/runbook-agent/internal/embeddings"
	"github.com/runbookops/runbook-agent/internal/runbook"
)

const collectionName = "runbooks"

const indexFileName = "runbooks.gob.gz"

// ChromemIndex implements Index using chromem-go.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc

	// locks serializes Upsert per document identity so the remove-then-
	// insert transaction of one runbook never interleaves with itself.
	// Upserts for different documents proceed concurrently.
	locks sync.Map // string -> *sync.Mutex

	seq atomic.Int64
}

// NewChromemIndex creates an in-memory ChromemIndex; Persist/Load move it
// to and from disk.
func NewChromemIndex(embedder embeddings.Embedder) (*ChromemIndex, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &ChromemIndex{
		db:         db,
		collection: col,
		embedder:   embedder,
		embedFunc:  ef,
	}
	idx.seq.Store(time.Now().UnixNano())
	return idx, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, rb *runbook.Runbook, contentHash string) error {
	if rb.Path == "" {
		return fmt.Errorf("runbook has no path identity")
	}

	muAny, _ := x.locks.LoadOrStore(rb.Path, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	// Phase one: drop all entries previously derived from this identity.
	// The store does not deduplicate derived entries by content, so this
	// is what keeps repeated ingestion bounded by section count.
	if err := x.deleteByPath(ctx, rb.Path); err != nil {
		return fmt.Errorf("remove prior entries for %s: %w", rb.Path, err)
	}

	// Phase two: insert one entry per section plus a whole-document entry.
	docs := x.entriesFor(rb, contentHash)
	if err := x.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("index %s: %w: %v", rb.Path, ErrEmbeddingUnavailable, err)
	}
	return nil
}

// entriesFor builds the chromem documents for one runbook: section entries
// in document order, then the whole-document entry.
func (x *ChromemIndex) entriesFor(rb *runbook.Runbook, contentHash string) []chromem.Document {
	base := x.seq.Add(int64(len(rb.Sections)) + 1)
	seq := base - int64(len(rb.Sections)) - 1

	maxLen := x.embedder.MaxInputLength()

	var docs []chromem.Document
	for _, sec := range rb.Sections {
		text := truncate("## "+sec.Name+"\n\n"+sec.Body, maxLen)
		docs = append(docs, chromem.Document{
			ID:      rb.Path + "#" + sec.Name,
			Content: text,
			Metadata: metadataToMap(EntryMetadata{
				RunbookPath: rb.Path,
				Section:     sec.Name,
				Title:       rb.Meta.Title,
				Severity:    string(rb.Meta.Severity),
				ContentHash: contentHash,
				Seq:         seq,
			}),
		})
		seq++
	}

	whole := rb.Preamble
	for _, sec := range rb.Sections {
		whole += "\n\n## " + sec.Name + "\n\n" + sec.Body
	}
	docs = append(docs, chromem.Document{
		ID:      rb.Path,
		Content: truncate(whole, maxLen),
		Metadata: metadataToMap(EntryMetadata{
			RunbookPath: rb.Path,
			Section:     "",
			Title:       rb.Meta.Title,
			Severity:    string(rb.Meta.Severity),
			ContentHash: contentHash,
			Seq:         seq,
		}),
	})
	return docs
}

func (x *ChromemIndex) Query(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 3
	}

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	vecs, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", ErrEmbeddingUnavailable)
	}

	results, err := x.collection.QueryEmbedding(ctx, vecs[0], k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Entry: Entry{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	// chromem sorts by similarity but leaves equal scores in arbitrary
	// order; break ties by insertion order for deterministic results.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Entry.Metadata.Seq < out[j].Entry.Metadata.Seq
	})

	return out, nil
}

func (x *ChromemIndex) DeleteRunbook(ctx context.Context, path string) error {
	muAny, _ := x.locks.LoadOrStore(path, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return x.deleteByPath(ctx, path)
}

func (x *ChromemIndex) deleteByPath(ctx context.Context, path string) error {
	if x.collection.Count() == 0 {
		return nil
	}
	return x.collection.Delete(ctx, map[string]string{"runbook_path": path}, nil)
}

func (x *ChromemIndex) Persist(ctx context.Context, dir string) error {
	return x.db.ExportToFile(dir+"/"+indexFileName, true, "")
}

func (x *ChromemIndex) Load(ctx context.Context, dir string) error {
	if err := x.db.ImportFromFile(dir+"/"+indexFileName, ""); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexCorrupted, err)
	}

	// Re-acquire the collection reference after import.
	col := x.db.GetCollection(collectionName, x.embedFunc)
	if col == nil {
		return fmt.Errorf("%w: collection %q not found after import", ErrIndexCorrupted, collectionName)
	}
	x.collection = col
	return nil
}

func (x *ChromemIndex) Count() int {
	return x.collection.Count()
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func metadataToMap(m EntryMetadata) map[string]string {
	return map[string]string{
		"runbook_path": m.RunbookPath,
		"section":      m.Section,
		"title":        m.Title,
		"severity":     m.Severity,
		"content_hash": m.ContentHash,
		"seq":          strconv.FormatInt(m.Seq, 10),
	}
}

func mapToMetadata(m map[string]string) EntryMetadata {
	seq, _ := strconv.ParseInt(m["seq"], 10, 64)
	return EntryMetadata{
		RunbookPath: m["runbook_path"],
		Section:     m["section"],
		Title:       m["title"],
		Severity:    m["severity"],
		ContentHash: m["content_hash"],
		Seq:         seq,
	}
}
