package paperlens

import "errors"

var (
	// ErrUnsupportedFileType is returned when the selected file is not a PDF.
	ErrUnsupportedFileType = errors.New("paperlens: unsupported file type")

	// ErrUploadFailed is returned when the paper could not be uploaded to the
	// assistant file store. It fails all four analyses at once.
	ErrUploadFailed = errors.New("paperlens: upload failed")

	// ErrFormat matches any *FormatError.
	ErrFormat = errors.New("paperlens: unexpected response format")

	// ErrNoFile is returned when analysis is started before a PDF was selected.
	ErrNoFile = errors.New("paperlens: no file selected")

	// ErrAnalysisInProgress is returned when analysis is started while a
	// previous one is still loading.
	ErrAnalysisInProgress = errors.New("paperlens: analysis already in progress")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("paperlens: session not found")

	// ErrNoMindMap is returned when no validated mind map is available.
	ErrNoMindMap = errors.New("paperlens: no mind map available")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("paperlens: invalid configuration")
)

// FormatError reports that an insights or research-ideas response lacked the
// expected numbered list.
type FormatError struct {
	Kind   Kind
	Reason string
}

func (e *FormatError) Error() string { return e.Reason }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// MindMapError wraps a parse or validation failure of the mind-map response.
type MindMapError struct {
	Err error
}

func (e *MindMapError) Error() string { return "Invalid mind map data: " + e.Err.Error() }

func (e *MindMapError) Unwrap() error { return e.Err }
