package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/brunobiangulo/paperlens"
	"github.com/brunobiangulo/paperlens/mindmap"
	"github.com/brunobiangulo/paperlens/parser"
	"github.com/brunobiangulo/paperlens/report"
)

const maxUploadSize = 50 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// starter launches an analysis in the background.
type starter interface {
	Start(ctx context.Context, s *paperlens.Session) (<-chan struct{}, error)
}

type handler struct {
	// ctx outlives individual requests; analyses are bound to it so they
	// stop on shutdown.
	ctx      context.Context
	analyzer starter
	sessions *paperlens.Sessions
}

func newHandler(ctx context.Context, a starter, sessions *paperlens.Sessions) *handler {
	return &handler{ctx: ctx, analyzer: a, sessions: sessions}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", h.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", h.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/file", h.handleSelectFile)
	mux.HandleFunc("POST /sessions/{id}/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /sessions/{id}/mindmap", h.handleMindMap)
	mux.HandleFunc("GET /sessions/{id}/report.xlsx", h.handleReport)
	mux.HandleFunc("POST /sessions/{id}/login", h.handleLogin)
	mux.HandleFunc("POST /sessions/{id}/logout", h.handleLogout)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

// POST /sessions
// Creates a session from a multipart "file" upload.
func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name, contentType, data, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessions.Create()
	h.selectFile(w, s, name, contentType, data, http.StatusCreated)
}

// POST /sessions/{id}/file
// Replaces the session's file and resets all results.
func (h *handler) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, contentType, data, err := readUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.selectFile(w, s, name, contentType, data, http.StatusOK)
}

func (h *handler) selectFile(w http.ResponseWriter, s *paperlens.Session, name, contentType string, data []byte, status int) {
	if err := s.SelectFile(name, contentType, data); err != nil {
		if errors.Is(err, paperlens.ErrUnsupportedFileType) {
			slog.Info("rejected upload", "session", s.ID, "file", name, "content_type", contentType)
			writeJSON(w, http.StatusUnsupportedMediaType, s.Snapshot())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to select file")
		slog.Error("select file error", "session", s.ID, "error", err)
		return
	}
	slog.Info("file selected", "session", s.ID, "file", name, "bytes", len(data))
	writeJSON(w, status, s.Snapshot())
}

// POST /sessions/{id}/analyze
// Starts the four analyses. Responds 202 with every kind loading.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := h.analyzer.Start(h.ctx, s); err != nil {
		switch {
		case errors.Is(err, paperlens.ErrAnalysisInProgress):
			writeError(w, http.StatusConflict, "analysis already in progress")
		case errors.Is(err, paperlens.ErrNoFile):
			writeError(w, http.StatusBadRequest, "no PDF selected")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start analysis")
			slog.Error("analyze error", "session", s.ID, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, s.Snapshot())
}

// GET /sessions/{id}
func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DELETE /sessions/{id}
func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /sessions/{id}/mindmap
// Returns the validated tree and its outline, or the rendered outline as
// plain text with ?format=text.
func (h *handler) handleMindMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	m, err := s.MindMap()
	if err != nil {
		writeError(w, http.StatusNotFound, "no mind map available")
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"mind_map": m,
			"outline":  mindmap.Outline(m),
		})
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := mindmap.NewRenderer(false).Render(w, m); err != nil {
			slog.Error("render mind map", "session", s.ID, "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json or text")
	}
}

// GET /sessions/{id}/report.xlsx
func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()

	var buf bytes.Buffer
	if err := report.Write(&buf, snap); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		slog.Error("report error", "session", s.ID, "error", err)
		return
	}

	name := "paperlens-report.xlsx"
	if snap.Filename != "" {
		base := filepath.Base(snap.Filename)
		name = base[:len(base)-len(filepath.Ext(base))] + "-report.xlsx"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// POST /sessions/{id}/login
// Sets the session's sign-in flag. No credentials are checked.
func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Login()
	writeJSON(w, http.StatusOK, map[string]bool{"logged_in": true})
}

// POST /sessions/{id}/logout
func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Logout()
	writeJSON(w, http.StatusOK, map[string]bool{"logged_in": false})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) (*paperlens.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

// readUpload reads the multipart "file" part into memory and resolves its
// content type.
func readUpload(w http.ResponseWriter, r *http.Request) (name, contentType string, data []byte, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", "", nil, fmt.Errorf("invalid upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, errors.New("file is required")
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return "", "", nil, fmt.Errorf("reading upload: %w", err)
	}

	// Sanitise filename to prevent path traversal.
	name = filepath.Base(header.Filename)
	contentType = parser.DetectContentType(name, declaredType(header), data)
	return name, contentType, data, nil
}

func declaredType(h *multipart.FileHeader) string {
	return h.Header.Get("Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
