package ports

import (
	"context"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// Retriever is the inbound contract for the retrieval engine: index
// lifecycle plus gated similarity queries.
type Retriever interface {
	Initialize(ctx context.Context) error
	Rebuild(ctx context.Context) error
	Query(ctx context.Context, question string, topK int) ([]domain.RetrievedSnippet, error)
	Ready() bool
}

// ChatService is the inbound contract for per-user conversation turns.
type ChatService interface {
	Respond(ctx context.Context, userID, text string) (*domain.TurnResult, error)
	Reset(ctx context.Context, userID string) (string, error)
	Help(ctx context.Context, userID string) (string, error)
	Welcome(ctx context.Context, userID string) (string, error)
}
