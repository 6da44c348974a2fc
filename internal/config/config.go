package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	NATSURL            string
	NATSReindexSubject string

	OpenAIBaseURL    string
	OpenAIAPIKey     string
	OpenAIChatModel  string
	OpenAIEmbedModel string

	CorpusManifestPath string
	ResourcesDir       string
	SnapshotDir        string

	ChunkSize       int
	ChunkOverlap    int
	RetrievalTopK   int
	EmbedBatchSize  int
	EmbedRatePerSec float64

	DefaultLocale  string
	HistoryWindow  int
	RelevantTopics []string
	OffTopicReply  string

	IndexerMetricsPort string
}

const defaultTopics = "company,organization,team,office,policy,vacation,holiday,salary,payroll,benefit," +
	"onboarding,offboarding,hr,department,manager,project,process,meeting,wiki,handbook," +
	"компания,организация,команда,офис,отпуск,зарплата,отдел,регламент,процесс,сотрудник"

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		// Empty DSN disables the durable turn log.
		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:            mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSReindexSubject: mustEnv("NATS_REINDEX_SUBJECT", "corpus.reindex"),

		OpenAIBaseURL:    mustEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", ""),
		OpenAIChatModel:  mustEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
		OpenAIEmbedModel: mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		CorpusManifestPath: mustEnv("CORPUS_MANIFEST_PATH", "./corpus.yaml"),
		ResourcesDir:       mustEnv("RESOURCES_DIR", ""),
		SnapshotDir:        mustEnv("SNAPSHOT_DIR", "./data/index"),

		ChunkSize:       mustEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:    mustEnvInt("CHUNK_OVERLAP", 200),
		RetrievalTopK:   mustEnvInt("RETRIEVAL_TOP_K", 5),
		EmbedBatchSize:  mustEnvInt("EMBED_BATCH_SIZE", 20),
		EmbedRatePerSec: mustEnvFloat("EMBED_RATE_PER_SEC", 1),

		DefaultLocale:  mustEnv("DEFAULT_LOCALE", "en"),
		HistoryWindow:  mustEnvInt("HISTORY_WINDOW", 3),
		RelevantTopics: splitCSV(mustEnv("RELEVANT_TOPICS", defaultTopics)),
		OffTopicReply:  mustEnv("OFF_TOPIC_REPLY", "I can only answer questions about the organization."),

		IndexerMetricsPort: mustEnv("INDEXER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
