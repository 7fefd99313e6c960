package mindmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse matches any *ParseError.
	ErrParse = errors.New("mindmap: invalid JSON")

	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("mindmap: validation failed")
)

// Validation failure messages, one per rule.
const (
	MsgNoNodes       = "Mind map must contain at least one node"
	MsgRelationships = "Relationships must be an array"
	MsgMetadata      = "Metadata must include paperTitle and mainTopic"
	MsgNodeID        = "Each node must have a string id"
	MsgNodeLabel     = "Each node must have a string label"
	MsgNodeType      = "Invalid node type"
	MsgChildren      = "Children must be an array"
)

// ParseError reports that the extracted payload is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError reports the first structural rule the payload broke.
// Path locates the offending value, e.g. "nodes[0].children[2]".
type ValidationError struct {
	Reason string
	Path   string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Parse extracts the JSON object embedded in raw assistant text and validates
// it as a mind map. The model often wraps its answer in prose, so the payload
// is taken greedily from the first '{' to the last '}'; when there is no such
// span the whole text is parsed.
//
// Validation stops at the first violation: nodes, relationships, metadata,
// then every node in depth-first pre-order. Fields no rule checks are taken
// as they come: a string year, a single author string or numeric
// relationship ids never fail the map.
func Parse(raw string) (*MindMap, error) {
	payload := extractJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	obj, _ := doc.(map[string]any)
	if err := validateDocument(obj); err != nil {
		return nil, err
	}

	// The typed view is lenient: anything the rules above accept decodes.
	var m MindMap
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &m, nil
}

// extractJSON returns the greedy {...} span of raw, or raw itself when no
// such span exists.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func validateDocument(obj map[string]any) error {
	nodes, ok := obj["nodes"].([]any)
	if !ok || len(nodes) == 0 {
		return &ValidationError{Reason: MsgNoNodes, Path: "nodes"}
	}

	// A missing relationships key is rejected too: the field must be an array.
	if _, ok := obj["relationships"].([]any); !ok {
		return &ValidationError{Reason: MsgRelationships, Path: "relationships"}
	}

	meta, _ := obj["metadata"].(map[string]any)
	if !nonEmptyString(meta["paperTitle"]) || !nonEmptyString(meta["mainTopic"]) {
		return &ValidationError{Reason: MsgMetadata, Path: "metadata"}
	}

	for i, n := range nodes {
		if err := validateNode(n, fmt.Sprintf("nodes[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(v any, path string) error {
	node, _ := v.(map[string]any)

	if !nonEmptyString(node["id"]) {
		return &ValidationError{Reason: MsgNodeID, Path: path}
	}
	if !nonEmptyString(node["label"]) {
		return &ValidationError{Reason: MsgNodeLabel, Path: path}
	}
	typ, _ := node["type"].(string)
	if !NodeType(typ).Valid() {
		return &ValidationError{Reason: MsgNodeType, Path: path}
	}

	// Absent, null, false, 0 and "" children are skipped like a missing list.
	raw := node["children"]
	if !truthy(raw) {
		return nil
	}
	children, ok := raw.([]any)
	if !ok {
		return &ValidationError{Reason: MsgChildren, Path: path + ".children"}
	}
	for i, c := range children {
		if err := validateNode(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
