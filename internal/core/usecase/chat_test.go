package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

type fakeRetriever struct {
	snippets []domain.RetrievedSnippet
	err      error
	ready    bool
}

func (f *fakeRetriever) Initialize(context.Context) error { return nil }
func (f *fakeRetriever) Rebuild(context.Context) error    { return nil }
func (f *fakeRetriever) Ready() bool                      { return f.ready }

func (f *fakeRetriever) Query(context.Context, string, int) ([]domain.RetrievedSnippet, error) {
	return f.snippets, f.err
}

type fakeCompletion struct {
	answer   string
	answers  []string
	err      error
	requests [][]domain.Message
}

func (f *fakeCompletion) Complete(_ context.Context, messages []domain.Message) (string, error) {
	f.requests = append(f.requests, messages)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) > 0 {
		a := f.answers[0]
		f.answers = f.answers[1:]
		return a, nil
	}
	return f.answer, nil
}

type fakeTranslator struct {
	err   error
	calls []string
}

func (f *fakeTranslator) Translate(_ context.Context, text, targetLang string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLang + "]" + text, nil
}

type fakeDetector struct{ lang string }

func (f fakeDetector) Detect(string) string { return f.lang }

type memTurnLog struct {
	records []domain.TurnRecord
	err     error
}

func (m *memTurnLog) AppendTurn(_ context.Context, rec domain.TurnRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memTurnLog) ListRecentTurns(context.Context, string, int) ([]domain.TurnRecord, error) {
	return m.records, nil
}

type chatFixture struct {
	uc         *ChatUseCase
	retriever  *fakeRetriever
	completion *fakeCompletion
	translator *fakeTranslator
	sessions   *SessionStore
	turnLog    *memTurnLog
}

func newChatFixture(lang string) *chatFixture {
	f := &chatFixture{
		retriever: &fakeRetriever{ready: true, snippets: []domain.RetrievedSnippet{
			{Chunk: domain.DocumentChunk{Text: "vacation policy text", SourceID: "handbook.md"}},
		}},
		completion: &fakeCompletion{answer: "the answer"},
		translator: &fakeTranslator{},
		sessions:   NewSessionStore(),
		turnLog:    &memTurnLog{},
	}
	f.uc = NewChatUseCase(
		f.retriever,
		f.completion,
		f.translator,
		fakeDetector{lang: lang},
		f.sessions,
		f.turnLog,
		ChatConfig{FollowUps: []string{"follow-up?"}},
		func(int) int { return 0 },
		testLogger(),
	)
	return f
}

func (f *chatFixture) respond(t *testing.T, text string) *domain.TurnResult {
	t.Helper()
	res, err := f.uc.Respond(context.Background(), "u1", text)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	return res
}

func TestRespondPlainTurn(t *testing.T) {
	f := newChatFixture("en")

	res := f.respond(t, "how do I book vacation")
	if res.Reply != "the answer" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if res.Augmentation != domain.AugmentationNone || res.TurnNumber != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(f.translator.calls) != 0 {
		t.Fatalf("default-locale turn must not translate, calls=%v", f.translator.calls)
	}
	if len(f.turnLog.records) != 1 || f.turnLog.records[0].TurnNumber != 1 {
		t.Fatalf("turn not logged: %+v", f.turnLog.records)
	}
}

func TestRespondInjectsContextAndHistory(t *testing.T) {
	f := newChatFixture("en")

	f.respond(t, "first question")
	f.respond(t, "second question")

	msgs := f.completion.requests[1]
	if msgs[0].Role != domain.RoleSystem || !strings.Contains(msgs[0].Content, "INFORMATION 1 (Source: handbook.md)") {
		t.Fatalf("system message missing retrieved context: %q", msgs[0].Content)
	}
	if msgs[1].Content != "first question" || msgs[2].Content != "the answer" {
		t.Fatalf("history not replayed: %+v", msgs)
	}
	if msgs[len(msgs)-1].Content != "second question" {
		t.Fatalf("current question must come last: %+v", msgs)
	}
}

func TestRespondHistoryWindowIsThree(t *testing.T) {
	f := newChatFixture("en")

	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		f.respond(t, q)
	}

	// The last completion request belongs to q5; turn 3 also issued a
	// comprehension-check request in between.
	msgs := f.completion.requests[len(f.completion.requests)-1]
	// system + 3 exchanges + current question
	if len(msgs) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "q2" {
		t.Fatalf("oldest replayed exchange should be q2, got %q", msgs[1].Content)
	}
}

func TestRespondFilteredQueryGetsNoContext(t *testing.T) {
	f := newChatFixture("en")
	f.retriever.snippets = []domain.RetrievedSnippet{domain.FilterSnippet("stay on topic")}

	f.respond(t, "tell me a joke")
	system := f.completion.requests[0][0].Content
	if strings.Contains(system, "INFORMATION") || strings.Contains(system, "stay on topic") {
		t.Fatalf("filtered query must not inject context: %q", system)
	}
}

func TestRespondAugmentationCadence(t *testing.T) {
	f := newChatFixture("en")

	for i := 1; i <= 2; i++ {
		if res := f.respond(t, "question"); res.Augmentation != domain.AugmentationNone {
			t.Fatalf("turn %d: unexpected augmentation %s", i, res.Augmentation)
		}
	}
	// Turn 3: both counters hit 3, the comprehension check takes priority.
	f.completion.answer = "check section with UNDERSTANDING CHECK inside"
	res := f.respond(t, "question")
	if res.Augmentation != domain.AugmentationComprehensionCheck {
		t.Fatalf("turn 3: got %s, want comprehension check", res.Augmentation)
	}
	if !strings.Contains(res.Reply, "\n\n") {
		t.Fatalf("augmented section not appended: %q", res.Reply)
	}
}

func TestRespondFollowUpWhenCountersDiverge(t *testing.T) {
	f := newChatFixture("en")

	// Two turns, then a reset: turn_count restarts while recent answers carry.
	f.respond(t, "q1")
	f.respond(t, "q2")
	if _, err := f.uc.Reset(context.Background(), "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	f.respond(t, "q3")
	f.respond(t, "q4")
	// turn_count=3, recent_answers=5: plain follow-up, not comprehension.
	res := f.respond(t, "q5")
	if res.Augmentation != domain.AugmentationFollowUp {
		t.Fatalf("got %s, want follow-up", res.Augmentation)
	}
	if !strings.HasSuffix(res.Reply, "\n\nfollow-up?") {
		t.Fatalf("follow-up not appended: %q", res.Reply)
	}
}

func TestRespondTranslatesFullReplyOnlyWithoutAugmentation(t *testing.T) {
	f := newChatFixture("ru")

	res := f.respond(t, "вопрос")
	if res.Reply != "[ru]the answer" {
		t.Fatalf("plain reply not translated: %q", res.Reply)
	}
	if res.Language != "ru" {
		t.Fatalf("language not recorded: %q", res.Language)
	}
}

func TestRespondFollowUpTurnKeepsBaseUntranslated(t *testing.T) {
	f := newChatFixture("ru")

	f.respond(t, "q1")
	f.respond(t, "q2")
	if _, err := f.uc.Reset(context.Background(), "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	f.respond(t, "q3")
	f.respond(t, "q4")

	res := f.respond(t, "q5")
	if res.Augmentation != domain.AugmentationFollowUp {
		t.Fatalf("got %s, want follow-up", res.Augmentation)
	}
	if !strings.HasPrefix(res.Reply, "the answer\n\n") {
		t.Fatalf("base answer must stay untranslated on augmented turns: %q", res.Reply)
	}
	if !strings.HasSuffix(res.Reply, "[ru]follow-up?") {
		t.Fatalf("follow-up question must be translated: %q", res.Reply)
	}
}

func TestRespondComprehensionCheckLocalizesHeader(t *testing.T) {
	f := newChatFixture("ru")

	f.respond(t, "q1")
	f.respond(t, "q2")
	f.completion.answers = []string{"third answer", "summary part. UNDERSTANDING CHECK\n1. q?"}
	res := f.respond(t, "q3")

	if res.Augmentation != domain.AugmentationComprehensionCheck {
		t.Fatalf("got %s, want comprehension check", res.Augmentation)
	}
	if strings.Contains(res.Reply, "UNDERSTANDING CHECK") {
		t.Fatalf("header not relabeled: %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "ПРОВЕРКА ПОНИМАНИЯ") {
		t.Fatalf("localized header missing: %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "[ru]") {
		t.Fatalf("check section not translated: %q", res.Reply)
	}
}

func TestRespondTranslationFailureIsNoOp(t *testing.T) {
	f := newChatFixture("ru")
	f.translator.err = errors.New("translation backend down")

	res := f.respond(t, "вопрос")
	if res.Reply != "the answer" {
		t.Fatalf("translation failure must keep the original text, got %q", res.Reply)
	}
}

func TestRespondCompletionFailureReturnsLocalizedGenericReply(t *testing.T) {
	f := newChatFixture("ru")
	f.completion.err = errors.New("completion backend down")

	res := f.respond(t, "вопрос")
	if res.Reply != genericErrorReplies["ru"] {
		t.Fatalf("expected localized generic error, got %q", res.Reply)
	}
	if got := f.sessions.Peek("u1"); got.TurnCount != 0 || len(got.History) != 0 {
		t.Fatalf("failed turn must not mutate state: %+v", got)
	}
	if len(f.turnLog.records) != 0 {
		t.Fatalf("failed turn must not be logged: %+v", f.turnLog.records)
	}
}

func TestRespondNotReadyPropagates(t *testing.T) {
	f := newChatFixture("en")
	f.retriever.err = domain.WrapError(domain.ErrNotReady, "query index", errors.New("no index"))

	_, err := f.uc.Respond(context.Background(), "u1", "question")
	if !domain.IsKind(err, domain.ErrNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
}

func TestRespondRejectsEmptyInput(t *testing.T) {
	f := newChatFixture("en")

	if _, err := f.uc.Respond(context.Background(), "u1", "   "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if _, err := f.uc.Respond(context.Background(), "", "question"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestResetAndHelpAreLocalized(t *testing.T) {
	f := newChatFixture("ru")
	f.respond(t, "вопрос")

	msg, err := f.uc.Reset(context.Background(), "u1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if msg != resetReplies["ru"] {
		t.Fatalf("reset reply not localized: %q", msg)
	}

	help, err := f.uc.Help(context.Background(), "u1")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if help != helpReplies["ru"] {
		t.Fatalf("help reply not localized: %q", help)
	}
}

func TestWelcomeIsLocalized(t *testing.T) {
	f := newChatFixture("ru")
	f.respond(t, "вопрос")

	msg, err := f.uc.Welcome(context.Background(), "u1")
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if msg != welcomeReplies["ru"] {
		t.Fatalf("welcome reply not localized: %q", msg)
	}

	// A user never seen before gets the default locale.
	msg, err = f.uc.Welcome(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if msg != welcomeReplies["en"] {
		t.Fatalf("fresh user should get the default locale: %q", msg)
	}
}

func TestStaticRepliesTranslateUnlistedLocales(t *testing.T) {
	f := newChatFixture("it")
	f.respond(t, "domanda")

	help, err := f.uc.Help(context.Background(), "u1")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if help != "[it]"+helpReplies["en"] {
		t.Fatalf("unlisted locale must go through the translator: %q", help)
	}

	welcome, err := f.uc.Welcome(context.Background(), "u1")
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome != "[it]"+welcomeReplies["en"] {
		t.Fatalf("unlisted locale must go through the translator: %q", welcome)
	}

	// Translation failure degrades to the untranslated English text.
	f.translator.err = errors.New("translation backend down")
	reset, err := f.uc.Reset(context.Background(), "u1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset != resetReplies["en"] {
		t.Fatalf("translator failure must keep the English text: %q", reset)
	}
}

func TestRespondReportsRetrievalOutcome(t *testing.T) {
	f := newChatFixture("en")

	if res := f.respond(t, "how do I book vacation"); res.Retrieval != domain.RetrievalHit {
		t.Fatalf("got %s, want hit", res.Retrieval)
	}

	f.retriever.snippets = []domain.RetrievedSnippet{domain.FilterSnippet("stay on topic")}
	if res := f.respond(t, "tell me a joke"); res.Retrieval != domain.RetrievalFiltered {
		t.Fatalf("got %s, want filtered", res.Retrieval)
	}

	f.retriever.err = errors.New("embedding backend down")
	if res := f.respond(t, "another question"); res.Retrieval != domain.RetrievalError {
		t.Fatalf("got %s, want error", res.Retrieval)
	}
}

func TestRespondTurnLogFailureIsBestEffort(t *testing.T) {
	f := newChatFixture("en")
	f.turnLog.err = errors.New("database down")

	res := f.respond(t, "question")
	if res.Reply != "the answer" {
		t.Fatalf("audit failure must not affect the reply: %q", res.Reply)
	}
	if got := f.sessions.Peek("u1"); got.TurnCount != 1 {
		t.Fatalf("turn must still commit: %+v", got)
	}
}
