package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
	"github.com/mkotelnikov/org-assistant/internal/core/ports"
)

const (
	defaultTopK           = 5
	defaultEmbedBatchSize = 20
)

// RetrievalOptions tunes the ingestion pipeline and query defaults.
type RetrievalOptions struct {
	SnapshotDir    string
	EmbedBatchSize int
	EmbedRate      *rate.Limiter
	Refusal        string
}

// RetrievalEngine owns the vector index lifecycle: snapshot load, full
// rebuild from the corpus, and gated similarity queries. The active index is
// swapped atomically under the mutex so queries never observe a half-built
// one.
type RetrievalEngine struct {
	corpus   ports.CorpusSource
	chunker  ports.Chunker
	embedder ports.Embedder
	newIndex func() ports.VectorIndex
	gate     *RelevanceGate
	opts     RetrievalOptions
	logger   *slog.Logger

	mu    sync.RWMutex
	index ports.VectorIndex
	ready bool
	stats BuildStats
}

// BuildStats describes how the active index was produced.
type BuildStats struct {
	Chunks         int
	SourcesIndexed int
	SourcesSkipped int
}

func NewRetrievalEngine(
	corpus ports.CorpusSource,
	chunker ports.Chunker,
	embedder ports.Embedder,
	newIndex func() ports.VectorIndex,
	gate *RelevanceGate,
	opts RetrievalOptions,
	logger *slog.Logger,
) *RetrievalEngine {
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = defaultEmbedBatchSize
	}
	if opts.Refusal == "" {
		opts.Refusal = "I can only answer questions about the organization."
	}
	return &RetrievalEngine{
		corpus:   corpus,
		chunker:  chunker,
		embedder: embedder,
		newIndex: newIndex,
		gate:     gate,
		opts:     opts,
		logger:   logger,
	}
}

// Initialize restores the index from the snapshot directory when a valid one
// exists, otherwise builds it from the corpus. A corrupt snapshot is logged
// and treated as absent.
func (e *RetrievalEngine) Initialize(ctx context.Context) error {
	if e.opts.SnapshotDir != "" {
		ix := e.newIndex()
		ok, err := ix.Load(e.opts.SnapshotDir)
		if err != nil {
			e.logger.Warn("index snapshot unusable, rebuilding",
				slog.String("dir", e.opts.SnapshotDir),
				slog.String("error", err.Error()))
		} else if ok {
			e.swap(ix, BuildStats{Chunks: ix.Len()})
			e.logger.Info("index restored from snapshot",
				slog.String("dir", e.opts.SnapshotDir),
				slog.Int("entries", ix.Len()))
			return nil
		}
	}
	return e.Rebuild(ctx)
}

// Rebuild constructs a fresh index from the corpus and swaps it in. The
// previous index keeps serving queries until the swap. Snapshot write
// failures are logged, not fatal.
func (e *RetrievalEngine) Rebuild(ctx context.Context) error {
	docs, err := e.corpus.FetchAll(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "fetch corpus", err)
	}

	ix := e.newIndex()
	indexed, skipped := 0, 0
	for _, doc := range docs {
		if err := e.indexSource(ctx, ix, doc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("source skipped during indexing",
				slog.String("source", doc.SourceID),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		indexed++
	}
	if ix.Len() == 0 {
		return domain.WrapError(domain.ErrTemporary, "build index", fmt.Errorf("no source produced any chunk"))
	}

	e.swap(ix, BuildStats{Chunks: ix.Len(), SourcesIndexed: indexed, SourcesSkipped: skipped})
	e.logger.Info("index rebuilt",
		slog.Int("sources", indexed),
		slog.Int("skipped", skipped),
		slog.Int("entries", ix.Len()))

	if e.opts.SnapshotDir != "" {
		if err := ix.Save(e.opts.SnapshotDir); err != nil {
			e.logger.Warn("index snapshot write failed",
				slog.String("dir", e.opts.SnapshotDir),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// indexSource chunks and embeds one document. Any embedding failure discards
// the whole source so the index never holds a partially embedded document.
func (e *RetrievalEngine) indexSource(ctx context.Context, ix ports.VectorIndex, doc domain.SourceDocument) error {
	chunks := e.chunker.Split(doc.SourceID, doc.Text)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks produced")
	}

	vectors := make([][]float32, 0, len(chunks))
	for off := 0; off < len(chunks); off += e.opts.EmbedBatchSize {
		hi := off + e.opts.EmbedBatchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		if e.opts.EmbedRate != nil {
			if err := e.opts.EmbedRate.Wait(ctx); err != nil {
				return err
			}
		}
		texts := make([]string, 0, hi-off)
		for _, c := range chunks[off:hi] {
			texts = append(texts, c.Text)
		}
		batch, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", off, err)
		}
		if len(batch) != len(texts) {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d texts", off, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return ix.Add(vectors, chunks)
}

// Query runs the gate then the similarity search. An off-topic question gets
// exactly one synthetic filter snippet and no embedding call is made.
func (e *RetrievalEngine) Query(ctx context.Context, question string, topK int) ([]domain.RetrievedSnippet, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	e.mu.RLock()
	ix, ready := e.index, e.ready
	e.mu.RUnlock()
	if !ready {
		return nil, domain.WrapError(domain.ErrNotReady, "query index", fmt.Errorf("no index loaded"))
	}

	if !e.gate.IsRelevant(question) {
		return []domain.RetrievedSnippet{domain.FilterSnippet(e.opts.Refusal)}, nil
	}

	vec, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query", err)
	}
	snippets, err := ix.Search(vec, topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "search index", err)
	}
	return snippets, nil
}

func (e *RetrievalEngine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Stats reports how the active index was produced. Zero value until ready.
func (e *RetrievalEngine) Stats() BuildStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

func (e *RetrievalEngine) swap(ix ports.VectorIndex, stats BuildStats) {
	e.mu.Lock()
	e.index = ix
	e.ready = true
	e.stats = stats
	e.mu.Unlock()
}
