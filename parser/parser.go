// Package parser accepts uploaded papers and reads basic facts out of them.
// Only PDFs are accepted.
package parser

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MIMEPDF is the only content type accepted for upload.
const MIMEPDF = "application/pdf"

// Info is what Inspect reads from a PDF.
type Info struct {
	Pages    int      `json:"pages"`
	Title    string   `json:"title,omitempty"`
	Headings []string `json:"headings,omitempty"`
}

// DetectContentType resolves the MIME type of an uploaded file. A declared
// type (e.g. a multipart part header) wins; otherwise the file extension,
// then the leading bytes decide.
func DetectContentType(filename, declared string, head []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ext := filepath.Ext(filename); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			return t
		}
	}
	return http.DetectContentType(head)
}

// IsPDF reports whether contentType is application/pdf, ignoring
// parameters.
func IsPDF(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == MIMEPDF
}
