package vectordb

import "errors"

// ErrEmbeddingUnavailable marks a failure of the embedding collaborator.
// Callers treat it as retryable and degrade instead of crashing.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// ErrIndexCorrupted marks a persisted index that could not be restored.
// It is fatal for the load operation only; re-ingestion rebuilds the index.
var ErrIndexCorrupted = errors.New("vector index corrupted")
