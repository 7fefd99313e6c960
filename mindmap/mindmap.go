// Package mindmap holds the mind-map tree returned by the mind-map assistant,
// the validator that turns raw assistant text into that tree, and the
// renderer that prints it.
package mindmap

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NodeType classifies a node's depth in the paper's structure.
type NodeType string

// Node types accepted by the validator.
const (
	TypeMain     NodeType = "main"
	TypeSubtopic NodeType = "subtopic"
	TypeDetail   NodeType = "detail"
)

// Valid reports whether t is one of the three known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeMain, TypeSubtopic, TypeDetail:
		return true
	}
	return false
}

// Node is one entry in the mind-map tree. IDs are only required to be
// non-empty; the same ID may appear in different branches.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     NodeType `json:"type"`
	Children []Node   `json:"children,omitempty"`
}

// UnmarshalJSON decodes a node without rejecting values the validator lets
// through: a children value that is not an array is dropped.
func (n *Node) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       json.RawMessage `json:"id"`
		Label    json.RawMessage `json:"label"`
		Type     json.RawMessage `json:"type"`
		Children json.RawMessage `json:"children"`
	}
	if !isObject(data) {
		*n = Node{}
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = Node{
		ID:    looseString(aux.ID),
		Label: looseString(aux.Label),
		Type:  NodeType(looseString(aux.Type)),
	}
	if isArray(aux.Children) {
		return json.Unmarshal(aux.Children, &n.Children)
	}
	return nil
}

// Relationship links two node IDs. The IDs are not checked against the tree.
type Relationship struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts any JSON value. Non-string ids and labels keep their
// JSON text, so {"from":1,"to":2} links "1" to "2"; a non-object entry
// decodes to the zero Relationship.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var aux struct {
		From  json.RawMessage `json:"from"`
		To    json.RawMessage `json:"to"`
		Label json.RawMessage `json:"label"`
	}
	if !isObject(data) {
		*r = Relationship{}
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Relationship{
		From:  looseString(aux.From),
		To:    looseString(aux.To),
		Label: looseString(aux.Label),
	}
	return nil
}

// Metadata describes the analyzed paper.
type Metadata struct {
	PaperTitle string   `json:"paperTitle"`
	Authors    []string `json:"authors,omitempty"`
	Year       *int     `json:"year,omitempty"`
	MainTopic  string   `json:"mainTopic"`
}

// UnmarshalJSON only requires the two checked titles to be strings. Authors
// may be a single string or a mixed array; a year may be a number or a
// numeric string. Anything else is left unset.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		PaperTitle json.RawMessage `json:"paperTitle"`
		Authors    json.RawMessage `json:"authors"`
		Year       json.RawMessage `json:"year"`
		MainTopic  json.RawMessage `json:"mainTopic"`
	}
	if !isObject(data) {
		*m = Metadata{}
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Metadata{
		PaperTitle: looseString(aux.PaperTitle),
		Authors:    looseStrings(aux.Authors),
		Year:       looseYear(aux.Year),
		MainTopic:  looseString(aux.MainTopic),
	}
	return nil
}

// MindMap is the validated root object. It is built once per successful
// mind-map analysis and never mutated afterwards.
type MindMap struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Metadata      Metadata       `json:"metadata"`
}

// Roots returns the top-level nodes of type main, in order. Top-level nodes
// of other types are only reachable as descendants.
func (m *MindMap) Roots() []Node {
	var roots []Node
	for _, n := range m.Nodes {
		if n.Type == TypeMain {
			roots = append(roots, n)
		}
	}
	return roots
}

// Walk visits every node in depth-first pre-order, including top-level nodes
// that are not of type main. Returning false from fn stops the walk.
func (m *MindMap) Walk(fn func(n Node, depth int) bool) {
	var visit func(nodes []Node, depth int) bool
	visit = func(nodes []Node, depth int) bool {
		for _, n := range nodes {
			if !fn(n, depth) {
				return false
			}
			if !visit(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(m.Nodes, 0)
}

// CountNodes returns the total number of nodes in the tree.
func (m *MindMap) CountNodes() int {
	n := 0
	m.Walk(func(Node, int) bool {
		n++
		return true
	})
	return n
}

func isObject(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

func isArray(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
}

// looseString returns a JSON string's value, "" for absent or null, and the
// compact JSON text of any other value.
func looseString(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}

func looseStrings(data json.RawMessage) []string {
	switch {
	case isArray(data):
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, looseString(it))
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)):
		if s := looseString(data); s != "" {
			return []string{s}
		}
	}
	return nil
}

func looseYear(data json.RawMessage) *int {
	text := strings.TrimSpace(looseString(data))
	if text == "" {
		return nil
	}
	if y, err := strconv.Atoi(text); err == nil {
		return &y
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
		y := int(f)
		return &y
	}
	return nil
}
