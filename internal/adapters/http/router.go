package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
	"github.com/mkotelnikov/org-assistant/internal/core/ports"
	"github.com/mkotelnikov/org-assistant/internal/observability/metrics"
)

// Router exposes the chat surface, index administration and observability
// endpoints of the api process.
type Router struct {
	service   string
	chat      ports.ChatService
	retriever ports.Retriever
	turnLog   ports.TurnLogStore
	reindex   ports.ReindexQueue
	metrics   *metrics.ChatMetrics
}

// NewRouter wires the handlers. turnLog and reindex may be nil; their
// endpoints respond 404 and 503 respectively.
func NewRouter(
	service string,
	chat ports.ChatService,
	retriever ports.Retriever,
	turnLog ports.TurnLogStore,
	reindex ports.ReindexQueue,
	m *metrics.ChatMetrics,
) *Router {
	return &Router{
		service:   service,
		chat:      chat,
		retriever: retriever,
		turnLog:   turnLog,
		reindex:   reindex,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	mux.HandleFunc("/v1/chat", rt.postChat)
	mux.HandleFunc("/v1/chat/reset", rt.postReset)
	mux.HandleFunc("/v1/chat/help", rt.getHelp)
	mux.HandleFunc("/v1/chat/welcome", rt.getWelcome)
	mux.HandleFunc("/v1/conversations/", rt.getTurns)
	mux.HandleFunc("/v1/admin/reindex", rt.postReindex)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	return requestIDMiddleware(accessLogMiddleware(rt.service, rt.metrics, mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports whether the knowledge index is ready to serve queries.
func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	if !rt.retriever.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "index not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.chat.Respond(r.Context(), req.UserID, req.Message)
	if err != nil {
		rt.observeTurn("error", string(domain.AugmentationNone), start)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	status := "ok"
	if result.Superseded {
		status = "superseded"
	}
	rt.observeTurn(status, string(result.Augmentation), start)
	rt.observeRetrieval(result.Retrieval)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) postReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	reply, err := rt.chat.Reset(r.Context(), req.UserID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (rt *Router) getHelp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	reply, err := rt.chat.Help(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (rt *Router) getWelcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	reply, err := rt.chat.Welcome(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// getTurns serves /v1/conversations/{user_id}/turns from the audit log.
func (rt *Router) getTurns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.turnLog == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "turn log is not configured"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")
	userID, ok := strings.CutSuffix(rest, "/turns")
	if !ok || userID == "" || strings.Contains(userID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected /v1/conversations/{user_id}/turns"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	turns, err := rt.turnLog.ListRecentTurns(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (rt *Router) postReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.reindex == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reindex queue is not configured"})
		return
	}

	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "manual"
	}
	if err := rt.reindex.PublishReindex(r.Context(), reason); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reindex requested"})
}

func (rt *Router) observeTurn(status, augmentation string, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.ObserveTurn(rt.service, status, augmentation, time.Since(start))
}

func (rt *Router) observeRetrieval(outcome domain.RetrievalOutcome) {
	if rt.metrics == nil || outcome == "" {
		return
	}
	rt.metrics.ObserveRetrieval(rt.service, string(outcome))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
