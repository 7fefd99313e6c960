package paperlens

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brunobiangulo/paperlens/assistant"
	"github.com/brunobiangulo/paperlens/mindmap"
)

// MindMapSuccess is the content stored for a completed mind-map analysis;
// the tree itself is kept separately on the session.
const MindMapSuccess = "Mind map generated successfully"

// enumeratedLine matches a line starting with a number and a period.
var enumeratedLine = regexp.MustCompile(`(?m)^\d+\.`)

// HandleResponse turns the raw assistant text for a kind into a completed
// Result. For the mind map it also returns the validated tree.
func HandleResponse(k Kind, raw string) (Result, *mindmap.MindMap, error) {
	switch k {
	case KindMindMap:
		m, err := mindmap.Parse(raw)
		if err != nil {
			return Result{}, nil, &MindMapError{Err: err}
		}
		return Result{Kind: k, Content: MindMapSuccess, Status: StatusComplete}, m, nil

	case KindInsights, KindResearchIdeas:
		if err := CheckEnumerated(k, raw); err != nil {
			return Result{}, nil, err
		}
		return Result{Kind: k, Content: strings.TrimSpace(raw), Status: StatusComplete}, nil, nil

	case KindAchievements:
		if strings.TrimSpace(raw) == "" {
			return Result{}, nil, fmt.Errorf("no response received for %s: %w", k, assistant.ErrNoResponse)
		}
		return Result{Kind: k, Content: raw, Status: StatusComplete}, nil, nil
	}
	return Result{}, nil, fmt.Errorf("unknown analysis kind: %s", k)
}

// CheckEnumerated verifies that text is non-empty and has at least one line
// beginning with a numeral followed by a period.
func CheckEnumerated(k Kind, text string) error {
	if strings.TrimSpace(text) == "" {
		return &FormatError{Kind: k, Reason: fmt.Sprintf("No %s found in the response", k.noun())}
	}
	if !enumeratedLine.MatchString(text) {
		return &FormatError{Kind: k, Reason: fmt.Sprintf("Invalid %s format", k.noun())}
	}
	return nil
}
