package usecase

import "strings"

// RelevanceGate is the keyword pre-filter applied before similarity search.
// A question passes when it contains at least one configured topic keyword,
// compared case-insensitively.
type RelevanceGate struct {
	topics []string
}

func NewRelevanceGate(topics []string) *RelevanceGate {
	lowered := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &RelevanceGate{topics: lowered}
}

// IsRelevant reports whether the question mentions any known topic. A gate
// with no topics accepts everything.
func (g *RelevanceGate) IsRelevant(question string) bool {
	if len(g.topics) == 0 {
		return true
	}
	q := strings.ToLower(question)
	for _, t := range g.topics {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
