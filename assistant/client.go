// Package assistant talks to the OpenAI Assistants API: file upload, threads,
// messages and runs, plus the polling runner that drives one run to its final
// answer.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com"

// Config configures a Client.
type Config struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// RunStatus is the lifecycle state reported for a run.
type RunStatus string

// Run statuses the runner distinguishes. Anything else is treated as
// terminal.
const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Pending reports whether the run has not reached a terminal status yet.
func (s RunStatus) Pending() bool {
	return s == RunQueued || s == RunInProgress
}

// File is an uploaded file handle.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

// Thread is a conversation context.
type Thread struct {
	ID string `json:"id"`
}

// Run is one execution of an assistant on a thread.
type Run struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      RunStatus `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
}

// RunError is the failure detail attached to a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Message is a thread message.
type Message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one segment of a message. Only "text" parts carry Text.
type ContentPart struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent holds the value of a text segment.
type TextContent struct {
	Value string `json:"value"`
}

// MessageRequest is the body for posting a message to a thread.
type MessageRequest struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment references an uploaded file and the tools allowed on it.
type Attachment struct {
	FileID string `json:"file_id"`
	Tools  []Tool `json:"tools"`
}

// Tool enables an assistant capability, e.g. "file_search".
type Tool struct {
	Type string `json:"type"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant: API error %d: %s", e.StatusCode, e.Message)
}

// Client is an Assistants API client. It is safe for concurrent use.
type Client struct {
	cfg        Config
	client     *http.Client
	pathPrefix string
}

// NewClient creates a client. Empty BaseURL defaults to DefaultBaseURL.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		pathPrefix: "/v1",
		client:     &http.Client{Timeout: timeout},
	}
}

// UploadFile uploads a document for use by assistants.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("buffering upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.pathPrefix+"/files", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var f File
	if err := c.send(req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateThread starts an empty thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var th Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &th); err != nil {
		return nil, err
	}
	return &th, nil
}

// CreateMessage posts a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, msg MessageRequest) (*Message, error) {
	var m Message
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", msg, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateRun starts a run of the given assistant on a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	body := struct {
		AssistantID string `json:"assistant_id"`
	}{AssistantID: assistantID}

	var run Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// RetrieveRun fetches the current state of a run.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListMessages returns the thread's messages in the API's default order
// (newest first).
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var resp struct {
		Data []Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+c.pathPrefix+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes req once. Failed calls are not retried; the runner's poll
// loop is the only repetition.
func (c *Client) send(req *http.Request, out interface{}) error {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	slog.Debug("assistant: request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

// errorMessage pulls error.message out of an API error body, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}
