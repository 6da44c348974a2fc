package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
	"github.com/mkotelnikov/org-assistant/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible API. One client is shared by the
// embedder, the completer and the translator so they reuse the same
// connection pool and circuit breakers.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyOpenAIError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}
	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := e.client.call(ctx, "openai.embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d inputs", len(response.Data), len(texts))
	}

	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})
	vectors := make([][]float32, len(response.Data))
	for i, d := range response.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Completer struct {
	client      *Client
	temperature float64
}

func NewCompleter(client *Client) *Completer {
	return &Completer{client: client, temperature: 0.2}
}

func (c *Completer) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("complete: no messages")
	}

	request := map[string]any{
		"model":       c.client.chatModel,
		"messages":    messages,
		"temperature": c.temperature,
	}
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.client.call(ctx, "openai.complete", func(ctx context.Context) error {
		return c.client.postJSON(ctx, "/v1/chat/completions", request, &response, "complete")
	})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("complete: response has no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
