package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
//
// Implementations must fail explicitly: an error return, never a zero or
// garbage vector. Callers treat embedding failure as a retryable condition.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string

	// MaxInputLength returns the maximum length, in bytes, of one input
	// text. Longer section text is truncated before embedding.
	MaxInputLength() int
}
