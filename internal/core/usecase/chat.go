package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
	"github.com/mkotelnikov/org-assistant/internal/core/ports"
)

const defaultSystemPrompt = "You are the organization's knowledge assistant. " +
	"Answer questions about the organization's teams, processes, policies and resources, " +
	"grounded in the reference information when it is provided. " +
	"If a question is outside the organization's scope, politely redirect the user back to organizational topics. " +
	"Be concise and factual."

// ChatConfig tunes the conversation orchestrator.
type ChatConfig struct {
	DefaultLocale string
	HistoryWindow int
	RetrievalTopK int
	SystemPrompt  string
	FollowUps     []string
}

// ChatUseCase runs one conversation turn per call: language detection,
// gated retrieval, completion, periodic augmentation and translation, then an
// atomic state commit. Only the most recently started turn per user commits;
// a superseded turn still returns its reply, flagged.
type ChatUseCase struct {
	retriever  ports.Retriever
	completion ports.CompletionService
	translator ports.Translator
	detector   ports.LanguageDetector
	sessions   *SessionStore
	turnLog    ports.TurnLogStore
	cfg        ChatConfig
	pick       func(n int) int
	logger     *slog.Logger
}

// NewChatUseCase wires the orchestrator. turnLog may be nil to disable the
// durable audit trail; pick may be nil to use a seeded math/rand source.
func NewChatUseCase(
	retriever ports.Retriever,
	completion ports.CompletionService,
	translator ports.Translator,
	detector ports.LanguageDetector,
	sessions *SessionStore,
	turnLog ports.TurnLogStore,
	cfg ChatConfig,
	pick func(n int) int,
	logger *slog.Logger,
) *ChatUseCase {
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 3
	}
	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = defaultTopK
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if len(cfg.FollowUps) == 0 {
		cfg.FollowUps = DefaultFollowUps
	}
	if pick == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		pick = rng.Intn
	}
	return &ChatUseCase{
		retriever:  retriever,
		completion: completion,
		translator: translator,
		detector:   detector,
		sessions:   sessions,
		turnLog:    turnLog,
		cfg:        cfg,
		pick:       pick,
		logger:     logger,
	}
}

func (uc *ChatUseCase) Respond(ctx context.Context, userID, text string) (*domain.TurnResult, error) {
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond",
			fmt.Errorf("user id and message text are required"))
	}

	lang := uc.detector.Detect(text)
	state, token := uc.sessions.Begin(userID)
	state.Language = lang

	snippets, err := uc.retriever.Query(ctx, text, uc.cfg.RetrievalTopK)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotReady) {
			return nil, err
		}
		return uc.failTurn(userID, lang, state.TurnCount, domain.RetrievalError, "retrieve context", err)
	}
	outcome := domain.RetrievalHit
	if len(snippets) == 1 && snippets[0].Chunk.IsFilterSentinel() {
		outcome = domain.RetrievalFiltered
	}
	contextBlock := FormatContext(snippets)

	raw, err := uc.completion.Complete(ctx, uc.buildMessages(state, contextBlock, text))
	if err != nil {
		return uc.failTurn(userID, lang, state.TurnCount, outcome, "complete answer", err)
	}

	next := state
	next.TurnCount++
	next.RecentAnswers = append(next.RecentAnswers, raw)
	aug := domain.DecideAugmentation(next.TurnCount, len(next.RecentAnswers))

	reply := raw
	switch aug {
	case domain.AugmentationComprehensionCheck:
		section, err := uc.comprehensionCheck(ctx, next.RecentAnswers, lang)
		if err != nil {
			return uc.failTurn(userID, lang, state.TurnCount, outcome, "comprehension check", err)
		}
		reply = raw + "\n\n" + section
	case domain.AugmentationFollowUp:
		q := uc.cfg.FollowUps[uc.pick(len(uc.cfg.FollowUps))]
		if lang != uc.cfg.DefaultLocale {
			q = uc.translateOrKeep(ctx, q, lang)
		}
		reply = raw + "\n\n" + q
	}
	// The base answer is translated only on unaugmented turns. Augmented
	// turns already translated their appended section in place.
	if aug == domain.AugmentationNone && lang != uc.cfg.DefaultLocale {
		reply = uc.translateOrKeep(ctx, reply, lang)
	}

	next.LastAnswer = raw
	next.History = append(next.History, domain.Exchange{UserText: text, AssistantText: reply})

	result := &domain.TurnResult{
		Reply:        reply,
		Language:     lang,
		Augmentation: aug,
		Retrieval:    outcome,
		TurnNumber:   next.TurnCount,
	}
	if err := uc.sessions.Commit(token, next); err != nil {
		if domain.IsKind(err, domain.ErrTurnSuperseded) {
			uc.logger.Warn("turn superseded, state discarded",
				slog.String("user_id", userID),
				slog.Int("turn", next.TurnCount))
			result.Superseded = true
			return result, nil
		}
		return nil, err
	}

	uc.appendTurnLog(ctx, userID, text, reply, lang, aug, next.TurnCount)
	return result, nil
}

// Reset clears history and counters for the user, keeping language and the
// comprehension-check cadence.
func (uc *ChatUseCase) Reset(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "reset", fmt.Errorf("user id is required"))
	}
	state := uc.sessions.Reset(userID)
	return uc.staticReply(ctx, resetReplies, state.Language), nil
}

func (uc *ChatUseCase) Help(ctx context.Context, userID string) (string, error) {
	state := uc.sessions.Peek(userID)
	return uc.staticReply(ctx, helpReplies, state.Language), nil
}

// Welcome greets a user in their last detected language, the default locale
// for a user never seen before.
func (uc *ChatUseCase) Welcome(ctx context.Context, userID string) (string, error) {
	state := uc.sessions.Peek(userID)
	return uc.staticReply(ctx, welcomeReplies, state.Language), nil
}

// staticReply serves a pre-translated variant when one exists and falls back
// to translating the English text on demand for any other detected language.
func (uc *ChatUseCase) staticReply(ctx context.Context, variants map[string]string, lang string) string {
	if v, ok := variants[lang]; ok {
		return v
	}
	if lang == "" || lang == uc.cfg.DefaultLocale {
		return variants["en"]
	}
	return uc.translateOrKeep(ctx, variants["en"], lang)
}

func (uc *ChatUseCase) buildMessages(state domain.ConversationState, contextBlock, question string) []domain.Message {
	system := uc.cfg.SystemPrompt
	if contextBlock != "" {
		system += "\n\nReference information:\n" + contextBlock
	}

	history := state.LastExchanges(uc.cfg.HistoryWindow)
	messages := make([]domain.Message, 0, 2+2*len(history))
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	for _, ex := range history {
		messages = append(messages,
			domain.Message{Role: domain.RoleUser, Content: ex.UserText},
			domain.Message{Role: domain.RoleAssistant, Content: ex.AssistantText},
		)
	}
	return append(messages, domain.Message{Role: domain.RoleUser, Content: question})
}

// comprehensionCheck asks the model to summarize the last three raw answers
// and quiz the user, then localizes the header and translates the section
// when the user's language differs from the default locale.
func (uc *ChatUseCase) comprehensionCheck(ctx context.Context, answers []string, lang string) (string, error) {
	last := answers
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	var b strings.Builder
	for i, a := range last {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, a)
	}

	instruction := "You are reviewing a tutoring session. Given the assistant's last answers, " +
		"write a brief summary of their key points, then a section headed exactly \"" + understandingHeader + "\" " +
		"containing 2-3 short questions that test whether the reader understood them. Respond in English."
	section, err := uc.completion.Complete(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: instruction},
		{Role: domain.RoleUser, Content: b.String()},
	})
	if err != nil {
		return "", err
	}
	if lang == uc.cfg.DefaultLocale {
		return section, nil
	}

	pre, rest, found := strings.Cut(section, understandingHeader)
	if !found {
		return uc.translateOrKeep(ctx, section, lang), nil
	}
	header := understandingHeader
	if h, ok := understandingHeaders[lang]; ok {
		header = h
	}
	return uc.translateOrKeep(ctx, pre, lang) + header + uc.translateOrKeep(ctx, rest, lang), nil
}

// translateOrKeep treats translation failure as a no-op so a flaky
// translation backend degrades to untranslated text instead of failing the
// turn.
func (uc *ChatUseCase) translateOrKeep(ctx context.Context, text, lang string) string {
	out, err := uc.translator.Translate(ctx, text, lang)
	if err != nil {
		uc.logger.Warn("translation failed, keeping original text",
			slog.String("target", lang),
			slog.String("error", err.Error()))
		return text
	}
	return out
}

// failTurn turns any mid-turn service failure into a localized generic reply.
// Nothing is committed, so the user's state is exactly as before the turn.
func (uc *ChatUseCase) failTurn(userID, lang string, turnCount int, outcome domain.RetrievalOutcome, op string, err error) (*domain.TurnResult, error) {
	uc.logger.Error("turn failed",
		slog.String("user_id", userID),
		slog.String("op", op),
		slog.String("error", err.Error()))
	return &domain.TurnResult{
		Reply:        localize(genericErrorReplies, lang),
		Language:     lang,
		Augmentation: domain.AugmentationNone,
		Retrieval:    outcome,
		TurnNumber:   turnCount,
	}, nil
}

func (uc *ChatUseCase) appendTurnLog(ctx context.Context, userID, question, answer, lang string, aug domain.Augmentation, turn int) {
	if uc.turnLog == nil {
		return
	}
	rec := domain.TurnRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Question:     question,
		Answer:       answer,
		Language:     lang,
		Augmentation: aug,
		TurnNumber:   turn,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.turnLog.AppendTurn(ctx, rec); err != nil {
		uc.logger.Warn("turn log append failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}
