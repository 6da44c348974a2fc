package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

const userAgent = "org-assistant-indexer/1.0"

// Page is one remote corpus source.
type Page struct {
	Name string
	URL  string
}

// Fetcher assembles the ingestion corpus from remote pages and local document
// directories. Remote fetches are rate limited to stay polite to the hosting
// wiki. A failed source is logged and skipped; FetchAll errors only when
// nothing at all could be fetched.
type Fetcher struct {
	pages      []Page
	localDirs  []string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewFetcher(pages []Page, localDirs []string, limiter *rate.Limiter, logger *slog.Logger) *Fetcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(1), 1)
	}
	return &Fetcher{
		pages:      pages,
		localDirs:  localDirs,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		logger:     logger,
	}
}

func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.SourceDocument, error) {
	var docs []domain.SourceDocument

	for _, page := range f.pages {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		text, err := f.fetchPage(ctx, page.URL)
		if err != nil {
			f.logger.Warn("corpus page skipped",
				slog.String("name", page.Name),
				slog.String("url", page.URL),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, domain.SourceDocument{SourceID: page.URL, Text: text})
	}

	for _, dir := range f.localDirs {
		local, err := f.readLocalDir(dir)
		if err != nil {
			f.logger.Warn("corpus directory skipped",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, local...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus: no usable source")
	}
	return docs, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page status: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}

	text := extractText(string(body))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("page has no extractable text")
	}
	return text, nil
}

// readLocalDir collects .md and .txt files one level deep.
func (f *Fetcher) readLocalDir(dir string) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var docs []domain.SourceDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			f.logger.Warn("corpus file skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		docs = append(docs, domain.SourceDocument{SourceID: path, Text: string(data)})
	}
	return docs, nil
}
