package paperlens

import "fmt"

// Kind identifies one of the four analyses run per paper.
type Kind string

// Analysis kinds.
const (
	KindMindMap       Kind = "MIND_MAP"
	KindInsights      Kind = "INSIGHTS"
	KindAchievements  Kind = "ACHIEVEMENTS"
	KindResearchIdeas Kind = "RESEARCH_IDEAS"
)

// Kinds lists every analysis kind in display order.
var Kinds = []Kind{KindMindMap, KindInsights, KindAchievements, KindResearchIdeas}

// ParseKind converts a kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown analysis kind: %s", s)
}

// Title is the panel heading for the kind.
func (k Kind) Title() string {
	switch k {
	case KindMindMap:
		return "Mind Map Analysis"
	case KindInsights:
		return "Key Insights"
	case KindAchievements:
		return "Research Impact"
	case KindResearchIdeas:
		return "Future Directions"
	}
	return string(k)
}

// Description is shown while the kind is idle.
func (k Kind) Description() string {
	switch k {
	case KindMindMap:
		return "Generate comprehensive mind maps from research papers"
	case KindInsights:
		return "Extract and analyze key research findings"
	case KindAchievements:
		return "Identify significant breakthroughs and contributions"
	case KindResearchIdeas:
		return "Discover potential research opportunities"
	}
	return ""
}

// noun names the kind's output in error messages.
func (k Kind) noun() string {
	switch k {
	case KindInsights:
		return "insights"
	case KindResearchIdeas:
		return "research ideas"
	case KindAchievements:
		return "achievements"
	}
	return "mind map"
}

// Status is the lifecycle state of one analysis kind.
type Status string

// Statuses. idle -> loading -> complete | error; only a new file selection
// returns a kind to idle.
const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Result is the current state of one analysis kind.
type Result struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}
