package usecase

import (
	"fmt"
	"strings"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// FormatContext renders retrieved snippets into the block injected into the
// completion prompt. Returns the empty string when retrieval was skipped by
// the relevance gate, signaled by a filter sentinel anywhere in the slice.
func FormatContext(snippets []domain.RetrievedSnippet) string {
	if len(snippets) == 0 {
		return ""
	}
	for _, s := range snippets {
		if s.Chunk.IsFilterSentinel() {
			return ""
		}
	}

	var b strings.Builder
	for i, s := range snippets {
		fmt.Fprintf(&b, "\nINFORMATION %d (Source: %s):\n%s\n", i+1, s.Chunk.SourceName(), s.Chunk.Text)
	}
	return b.String()
}
