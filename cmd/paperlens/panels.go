package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/brunobiangulo/paperlens"
	"github.com/brunobiangulo/paperlens/mindmap"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB")).
			Background(lipgloss.Color("#1E3A8A")).Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	mutedStyle = lipgloss.NewStyle().Foreground(mindmap.ColorMuted)
)

// panels prints the four analysis results the way the web client lays them
// out: one titled panel per kind.
type panels struct {
	w        io.Writer
	color    bool
	markdown *glamour.TermRenderer
	mindMap  *mindmap.Renderer
}

func newPanels(w io.Writer, color bool, width int) (*panels, error) {
	style := glamour.WithStandardStyle("notty")
	if color {
		style = glamour.WithAutoStyle()
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &panels{w: w, color: color, markdown: md, mindMap: mindmap.NewRenderer(color)}, nil
}

func (p *panels) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Print writes every panel of snap in display order.
func (p *panels) Print(snap paperlens.Snapshot) error {
	for i, r := range snap.Results {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		if err := p.printResult(r, snap.MindMap); err != nil {
			return err
		}
	}
	return nil
}

func (p *panels) printResult(r paperlens.Result, m *mindmap.MindMap) error {
	title := r.Kind.Title()
	if !p.color {
		title = "== " + title + " =="
	}
	fmt.Fprintln(p.w, p.paint(headerStyle, title))
	fmt.Fprintln(p.w)

	switch r.Status {
	case paperlens.StatusError:
		fmt.Fprintln(p.w, p.paint(errorStyle, "Error: "+r.Error))
	case paperlens.StatusLoading:
		fmt.Fprintln(p.w, p.paint(mutedStyle, "Analyzing..."))
	case paperlens.StatusIdle:
		fmt.Fprintln(p.w, p.paint(mutedStyle, r.Kind.Description()))
	case paperlens.StatusComplete:
		if r.Kind == paperlens.KindMindMap && m != nil {
			return p.mindMap.Render(p.w, m)
		}
		return p.printMarkdown(r.Content)
	}
	return nil
}

func (p *panels) printMarkdown(text string) error {
	out, err := p.markdown.Render(text)
	if err != nil {
		// Fall back to the raw text rather than lose the analysis.
		_, werr := fmt.Fprintln(p.w, strings.TrimRight(text, "\n"))
		return werr
	}
	_, err = io.WriteString(p.w, out)
	return err
}
