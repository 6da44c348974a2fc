package chunking

import (
	"strings"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// separators in priority order: paragraph, line, sentence, word. Character
// split is the implicit fallback when none occurs in the window.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into ordered chunks of at most ChunkSize runes. Each chunk
// after the first begins exactly Overlap runes before the end of its
// predecessor, so context spans every boundary. Cut points prefer the
// highest-priority separator found inside the window; trailing content
// shorter than ChunkSize always becomes the final chunk. Deterministic for a
// given input and configuration.
func (s *Splitter) Split(sourceID, text string) []domain.DocumentChunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]domain.DocumentChunk, 0, len(runes)/s.ChunkSize+1)
	seq := 0
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cutPoint(runes, start, end)
		}

		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			out = append(out, domain.DocumentChunk{
				Text:          chunk,
				SourceID:      sourceID,
				SequenceIndex: seq,
			})
			seq++
		}

		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			// Overlap would stall the scan; fall back to a hard step.
			next = end
		}
		start = next
	}
	return out
}

// cutPoint returns the rune index to cut at, preferring the last occurrence
// of the highest-priority separator within (start, limit]. The cut lands just
// after the separator so it stays with the leading chunk.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	window := runes[start:limit]
	for _, sep := range separators {
		if pos := lastSeparatorEnd(window, []rune(sep)); pos > 0 {
			return start + pos
		}
	}
	return limit
}

// lastSeparatorEnd returns the index just past the last occurrence of sep in
// window, or -1 when sep does not occur past the first rune.
func lastSeparatorEnd(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 1; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i + len(sep)
		}
	}
	return -1
}
