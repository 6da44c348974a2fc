package domain

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Exchange is one completed user/assistant turn kept in history.
type Exchange struct {
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
}

// ConversationState is the per-user record mutated once per committed turn.
// RecentAnswers holds every raw (pre-augmentation, pre-translation) answer and
// survives a reset; History and TurnCount do not.
type ConversationState struct {
	Language      string     `json:"language"`
	TurnCount     int        `json:"turn_count"`
	History       []Exchange `json:"history"`
	RecentAnswers []string   `json:"recent_answers"`
	LastAnswer    string     `json:"last_answer"`
}

// Clone returns a deep copy so an in-flight turn can work on a snapshot
// without aliasing the committed state.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.History = append([]Exchange(nil), s.History...)
	out.RecentAnswers = append([]string(nil), s.RecentAnswers...)
	return out
}

// LastExchanges returns up to n most recent history entries in order.
func (s ConversationState) LastExchanges(n int) []Exchange {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// TurnRecord is the durable audit entry appended after a committed turn.
type TurnRecord struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Language     string       `json:"language"`
	Augmentation Augmentation `json:"augmentation"`
	TurnNumber   int          `json:"turn_number"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TurnResult is what the orchestrator hands back to the transport for one
// processed turn.
type TurnResult struct {
	Reply        string           `json:"reply"`
	Language     string           `json:"language"`
	Augmentation Augmentation     `json:"augmentation"`
	Retrieval    RetrievalOutcome `json:"retrieval"`
	TurnNumber   int              `json:"turn_number"`
	Superseded   bool             `json:"superseded,omitempty"`
}
