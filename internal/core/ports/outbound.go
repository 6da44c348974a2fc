package ports

import (
	"context"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// Embedder builds vectors for corpus chunks and query text. All vectors
// produced by one configuration share the same dimensionality.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionService produces an answer from an ordered message list.
type CompletionService interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// Translator renders text into the target language. Identity when the target
// is the default locale or an unrecognized code.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// LanguageDetector guesses the language of user text, falling back to the
// default locale when detection is unreliable.
type LanguageDetector interface {
	Detect(text string) string
}

// Chunker splits one source document into ordered overlapping chunks.
type Chunker interface {
	Split(sourceID, text string) []domain.DocumentChunk
}

// VectorIndex stores embedding vectors with their parallel chunk metadata and
// answers exhaustive nearest-neighbor queries. Load reports false when no
// snapshot exists at the directory.
type VectorIndex interface {
	Add(vectors [][]float32, chunks []domain.DocumentChunk) error
	Search(query []float32, k int) ([]domain.RetrievedSnippet, error)
	Save(dir string) error
	Load(dir string) (bool, error)
	Len() int
}

// CorpusSource enumerates the named text blobs consumed during ingestion.
// Individual source failures are logged and skipped by the implementation;
// an error means no usable source at all.
type CorpusSource interface {
	FetchAll(ctx context.Context) ([]domain.SourceDocument, error)
}

// TurnLogStore persists the append-only audit of committed turns.
type TurnLogStore interface {
	AppendTurn(ctx context.Context, rec domain.TurnRecord) error
	ListRecentTurns(ctx context.Context, userID string, limit int) ([]domain.TurnRecord, error)
}

// ReindexQueue publishes/consumes corpus reindex requests.
type ReindexQueue interface {
	PublishReindex(ctx context.Context, reason string) error
	SubscribeReindex(ctx context.Context, handler func(context.Context, string) error) error
}
