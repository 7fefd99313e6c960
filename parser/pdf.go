package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxHeadings caps how many headings Inspect collects.
const maxHeadings = 24

// Inspect opens a PDF and reads its page count, document-info title and the
// section headings it can find in the page text. Pages whose text cannot be
// extracted are skipped.
func Inspect(r io.ReaderAt, size int64) (info *Info, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			info, err = nil, fmt.Errorf("reading PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	info = &Info{
		Pages: reader.NumPage(),
		Title: strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()),
	}

	for i := 1; i <= info.Pages && len(info.Headings) < maxHeadings; i++ {
		text, ok := pageText(reader, i)
		if !ok {
			continue
		}
		if info.Title == "" && i == 1 {
			info.Title = guessTitle(text)
		}
		for _, h := range findHeadings(text) {
			if len(info.Headings) == maxHeadings {
				break
			}
			info.Headings = append(info.Headings, h)
		}
	}
	return info, nil
}

// InspectBytes is Inspect over an in-memory file.
func InspectBytes(data []byte) (*Info, error) {
	return Inspect(bytes.NewReader(data), int64(len(data)))
}

func pageText(reader *pdf.Reader, i int) (text string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("parser: page text extraction panicked", "page", i, "panic", p)
			text, ok = "", false
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// guessTitle takes the first line of the first page long enough to be a
// title.
func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 10 && len(line) <= 200 && !isLikelyHeading(line) {
			return line
		}
	}
	return ""
}

func findHeadings(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if isLikelyHeading(line) {
			headings = append(headings, line)
		}
	}
	return headings
}

// paperSections are the usual top-level headings of a research paper.
var paperSections = []string{
	"abstract", "introduction", "background", "related work", "methods",
	"materials and methods", "methodology", "results", "discussion",
	"conclusion", "conclusions", "limitations", "references", "acknowledgments",
}

func isLikelyHeading(line string) bool {
	if line == "" || len(line) > 120 {
		return false
	}
	lower := strings.ToLower(strings.TrimRight(line, ":."))

	for _, s := range paperSections {
		if lower == s {
			return true
		}
	}

	// Numbered sections: "1. Introduction", "2.3 Statistical analysis".
	if line[0] >= '1' && line[0] <= '9' && len(line) < 80 {
		num, rest, found := strings.Cut(line, " ")
		if found && strings.Contains(num, ".") && strings.Trim(num, "0123456789.") == "" && rest != "" {
			first := rest[0]
			return first >= 'A' && first <= 'Z'
		}
	}

	// Short all-caps lines.
	letters := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, line)
	return len(letters) > 3 && len(line) < 60 && line == strings.ToUpper(line)
}
