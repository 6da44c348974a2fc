package usecase

import (
	"fmt"
	"sync"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

// TurnToken identifies one in-flight turn of one user. A commit with a stale
// token is rejected, so when turns overlap only the most recently started one
// lands.
type TurnToken struct {
	userID string
	seq    uint64
}

type session struct {
	state   domain.ConversationState
	turnSeq uint64
}

// SessionStore keeps per-user conversation state in memory. Reads hand out
// deep copies; writes go through Begin/Commit so no lock is held across
// external calls.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session)}
}

// Begin snapshots the user's state and registers a new in-flight turn,
// superseding any turn started earlier for the same user.
func (s *SessionStore) Begin(userID string) (domain.ConversationState, TurnToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[userID]
	if sess == nil {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.turnSeq++
	return sess.state.Clone(), TurnToken{userID: userID, seq: sess.turnSeq}
}

// Commit installs the turn's resulting state. Fails with ErrTurnSuperseded
// when a newer turn for the user began after this token was issued.
func (s *SessionStore) Commit(token TurnToken, next domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[token.userID]
	if sess == nil || sess.turnSeq != token.seq {
		return domain.WrapError(domain.ErrTurnSuperseded, "commit turn",
			fmt.Errorf("user %s", token.userID))
	}
	sess.state = next.Clone()
	return nil
}

// Peek returns a copy of the user's current state.
func (s *SessionStore) Peek(userID string) domain.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.sessions[userID]; sess != nil {
		return sess.state.Clone()
	}
	return domain.ConversationState{}
}

// Reset clears history and counters but keeps the detected language and the
// accumulated raw answers, so comprehension cadence spans resets.
func (s *SessionStore) Reset(userID string) domain.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions[userID]
	if sess == nil {
		sess = &session{}
		s.sessions[userID] = sess
	}
	sess.turnSeq++
	sess.state = domain.ConversationState{
		Language:      sess.state.Language,
		RecentAnswers: sess.state.RecentAnswers,
	}
	return sess.state.Clone()
}
