package domain

import "strings"

// FilterSource is the reserved source id carried by the synthetic snippet
// returned when the relevance gate rejects a query. Downstream formatting
// treats its presence as "no retrieval was performed".
const FilterSource = "filter"

// DocumentChunk is the retrieval unit: a bounded contiguous slice of one
// corpus document. Immutable once produced by the splitter.
type DocumentChunk struct {
	Text          string `json:"text"`
	SourceID      string `json:"source_id"`
	SequenceIndex int    `json:"sequence_index"`
}

// IsFilterSentinel reports whether the chunk is the off-topic marker rather
// than a real corpus document.
func (c DocumentChunk) IsFilterSentinel() bool {
	return c.SourceID == FilterSource
}

// SourceName returns the human-readable label for the chunk's origin:
// the last path or URL segment of the source id.
func (c DocumentChunk) SourceName() string {
	trimmed := strings.TrimRight(c.SourceID, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// RetrievedSnippet pairs a chunk with its distance to the query vector.
// Lower distance means closer.
type RetrievedSnippet struct {
	Chunk    DocumentChunk `json:"chunk"`
	Distance float64       `json:"distance"`
}

// RetrievalOutcome classifies what retrieval did for a turn.
type RetrievalOutcome string

const (
	RetrievalHit      RetrievalOutcome = "hit"
	RetrievalFiltered RetrievalOutcome = "filtered"
	RetrievalError    RetrievalOutcome = "error"
)

// SourceDocument is one named corpus blob as produced by the corpus fetcher,
// before chunking.
type SourceDocument struct {
	SourceID string
	Text     string
}

// FilterSnippet builds the single synthetic result returned for an
// off-topic query.
func FilterSnippet(refusal string) RetrievedSnippet {
	return RetrievedSnippet{
		Chunk: DocumentChunk{
			Text:          refusal,
			SourceID:      FilterSource,
			SequenceIndex: 0,
		},
	}
}
