package mindmap

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Line is one rendered node of the outline.
type Line struct {
	Depth int      `json:"depth"`
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`
}

// Outline flattens the tree the way it is displayed: each main root followed
// by its descendants in depth-first order.
func Outline(m *MindMap) []Line {
	var lines []Line
	var visit func(n Node, depth int)
	visit = func(n Node, depth int) {
		lines = append(lines, Line{Depth: depth, ID: n.ID, Label: n.Label, Type: n.Type})
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, root := range m.Roots() {
		visit(root, 0)
	}
	return lines
}

// RelationshipLine formats r as "from → to" or "from → label → to".
func RelationshipLine(r Relationship) string {
	if r.Label != "" {
		return r.From + " → " + r.Label + " → " + r.To
	}
	return r.From + " → " + r.To
}

// Node colors.
var (
	ColorMain     = lipgloss.Color("#93C5FD")
	ColorSubtopic = lipgloss.Color("#D8B4FE")
	ColorDetail   = lipgloss.Color("#86EFAC")
	ColorMuted    = lipgloss.Color("#9CA3AF")
)

// Renderer prints a mind map as an indented outline followed by the flat
// relationship list.
type Renderer struct {
	Indent string

	color  bool
	title  lipgloss.Style
	muted  lipgloss.Style
	styles map[NodeType]lipgloss.Style
}

// NewRenderer returns a renderer. With color disabled the output is plain
// text and stable across terminals.
func NewRenderer(color bool) *Renderer {
	return &Renderer{
		Indent: "  ",
		color:  color,
		title:  lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(ColorMuted),
		styles: map[NodeType]lipgloss.Style{
			TypeMain:     lipgloss.NewStyle().Foreground(ColorMain).Bold(true),
			TypeSubtopic: lipgloss.NewStyle().Foreground(ColorSubtopic),
			TypeDetail:   lipgloss.NewStyle().Foreground(ColorDetail),
		},
	}
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Render writes the metadata header, the outline and the relationships.
func (r *Renderer) Render(w io.Writer, m *MindMap) error {
	var b strings.Builder

	b.WriteString(r.paint(r.title, m.Metadata.PaperTitle))
	b.WriteString("\n")
	if len(m.Metadata.Authors) > 0 {
		b.WriteString(r.paint(r.muted, "Authors: "+strings.Join(m.Metadata.Authors, ", ")))
		b.WriteString("\n")
	}
	if m.Metadata.Year != nil && *m.Metadata.Year != 0 {
		b.WriteString(r.paint(r.muted, fmt.Sprintf("Year: %d", *m.Metadata.Year)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, l := range Outline(m) {
		b.WriteString(strings.Repeat(r.Indent, l.Depth))
		b.WriteString(r.paint(r.styles[l.Type], l.Label))
		b.WriteString("\n")
	}

	if len(m.Relationships) > 0 {
		b.WriteString("\n")
		b.WriteString(r.paint(r.muted, "Relationships:"))
		b.WriteString("\n")
		for _, rel := range m.Relationships {
			b.WriteString(r.Indent)
			b.WriteString(r.paint(r.muted, RelationshipLine(rel)))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders m to a string.
func (r *Renderer) String(m *MindMap) string {
	var b strings.Builder
	_ = r.Render(&b, m)
	return b.String()
}
