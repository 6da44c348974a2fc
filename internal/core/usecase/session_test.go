package usecase

import (
	"testing"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

func TestSessionCommitAppliesState(t *testing.T) {
	store := NewSessionStore()

	state, token := store.Begin("u1")
	if state.TurnCount != 0 {
		t.Fatalf("fresh session should start at turn 0, got %d", state.TurnCount)
	}
	state.TurnCount = 1
	state.History = append(state.History, domain.Exchange{UserText: "q", AssistantText: "a"})
	if err := store.Commit(token, state); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got := store.Peek("u1")
	if got.TurnCount != 1 || len(got.History) != 1 {
		t.Fatalf("committed state not visible: %+v", got)
	}
}

func TestSessionStaleCommitIsDiscarded(t *testing.T) {
	store := NewSessionStore()

	old, oldToken := store.Begin("u1")
	fresh, freshToken := store.Begin("u1")

	old.TurnCount = 99
	if err := store.Commit(oldToken, old); !domain.IsKind(err, domain.ErrTurnSuperseded) {
		t.Fatalf("expected superseded error, got %v", err)
	}

	fresh.TurnCount = 1
	if err := store.Commit(freshToken, fresh); err != nil {
		t.Fatalf("fresh commit: %v", err)
	}
	if got := store.Peek("u1"); got.TurnCount != 1 {
		t.Fatalf("stale turn leaked into state: %+v", got)
	}
}

func TestSessionResetKeepsLanguageAndRecentAnswers(t *testing.T) {
	store := NewSessionStore()

	state, token := store.Begin("u1")
	state.Language = "ru"
	state.TurnCount = 4
	state.History = []domain.Exchange{{UserText: "q", AssistantText: "a"}}
	state.RecentAnswers = []string{"a1", "a2"}
	if err := store.Commit(token, state); err != nil {
		t.Fatalf("commit: %v", err)
	}

	after := store.Reset("u1")
	if after.Language != "ru" {
		t.Fatalf("language lost on reset: %q", after.Language)
	}
	if len(after.RecentAnswers) != 2 {
		t.Fatalf("recent answers lost on reset: %v", after.RecentAnswers)
	}
	if after.TurnCount != 0 || len(after.History) != 0 {
		t.Fatalf("reset must clear counters and history: %+v", after)
	}
}

func TestSessionResetSupersedesInFlightTurn(t *testing.T) {
	store := NewSessionStore()

	state, token := store.Begin("u1")
	store.Reset("u1")

	state.TurnCount = 1
	if err := store.Commit(token, state); !domain.IsKind(err, domain.ErrTurnSuperseded) {
		t.Fatalf("expected superseded error after reset, got %v", err)
	}
}

func TestSessionIsolationBetweenUsers(t *testing.T) {
	store := NewSessionStore()

	s1, t1 := store.Begin("u1")
	s1.TurnCount = 5
	if err := store.Commit(t1, s1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := store.Peek("u2"); got.TurnCount != 0 {
		t.Fatalf("state leaked across users: %+v", got)
	}
}
