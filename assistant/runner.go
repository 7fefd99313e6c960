package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrRunFailed is returned when a run reports status "failed".
	ErrRunFailed = errors.New("assistant: run failed")

	// ErrNoResponse is returned when the thread holds no usable assistant
	// message after the run finished.
	ErrNoResponse = errors.New("assistant: no response")
)

// DefaultPollInterval is the fixed delay between run status checks.
const DefaultPollInterval = 2 * time.Second

// API is the subset of Client the runner drives.
type API interface {
	CreateThread(ctx context.Context) (*Thread, error)
	CreateMessage(ctx context.Context, threadID string, msg MessageRequest) (*Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}

// Task describes one assistant run over an uploaded file.
type Task struct {
	Name        string // used in errors and logs
	AssistantID string
	FileID      string
	Prompt      string
}

// Runner executes tasks to completion, one thread and one run per task.
type Runner struct {
	api          API
	pollInterval time.Duration
	timeout      time.Duration
}

// NewRunner creates a runner polling at the given interval. A zero interval
// uses DefaultPollInterval.
func NewRunner(api API, pollInterval time.Duration) *Runner {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Runner{api: api, pollInterval: pollInterval}
}

// WithTimeout bounds each run. Zero, the default, polls until the run reaches
// a terminal status or ctx is cancelled.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// Run creates a thread, posts the prompt with the file attached for
// file_search, starts the run and polls it until it leaves queued/in_progress.
// It returns the text of the first assistant message, segments joined by a
// blank line.
func (r *Runner) Run(ctx context.Context, task Task) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()

	thread, err := r.api.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}

	_, err = r.api.CreateMessage(ctx, thread.ID, MessageRequest{
		Role:    "user",
		Content: task.Prompt,
		Attachments: []Attachment{{
			FileID: task.FileID,
			Tools:  []Tool{{Type: "file_search"}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("posting message: %w", err)
	}

	run, err := r.api.CreateRun(ctx, thread.ID, task.AssistantID)
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}

	run, err = r.api.RetrieveRun(ctx, thread.ID, run.ID)
	if err != nil {
		return "", fmt.Errorf("retrieving run: %w", err)
	}
	polls := 0
	for run.Status.Pending() {
		select {
		case <-time.After(r.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		run, err = r.api.RetrieveRun(ctx, thread.ID, run.ID)
		if err != nil {
			return "", fmt.Errorf("retrieving run: %w", err)
		}
		polls++
		slog.Debug("assistant: run status", "task", task.Name, "run", run.ID, "status", run.Status, "polls", polls)
	}

	if run.Status == RunFailed {
		if run.LastError != nil && run.LastError.Message != "" {
			return "", fmt.Errorf("analysis failed for %s: %s: %w", task.Name, run.LastError.Message, ErrRunFailed)
		}
		return "", fmt.Errorf("analysis failed for %s: %w", task.Name, ErrRunFailed)
	}
	if run.Status != RunCompleted {
		slog.Warn("assistant: run ended without completing", "task", task.Name, "run", run.ID, "status", run.Status)
	}

	msgs, err := r.api.ListMessages(ctx, thread.ID)
	if err != nil {
		return "", fmt.Errorf("listing messages: %w", err)
	}

	text, ok := assistantText(msgs)
	if !ok {
		return "", fmt.Errorf("no response received for %s: %w", task.Name, ErrNoResponse)
	}

	slog.Info("assistant: run complete",
		"task", task.Name,
		"run", run.ID,
		"polls", polls,
		"chars", len(text),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return text, nil
}

// assistantText joins the segments of the first assistant message. Non-text
// segments contribute an empty string. ok is false when there is no
// assistant message or it has no content.
func assistantText(msgs []Message) (string, bool) {
	for _, m := range msgs {
		if m.Role != "assistant" {
			continue
		}
		if len(m.Content) == 0 {
			return "", false
		}
		parts := make([]string, len(m.Content))
		for i, c := range m.Content {
			if c.Type == "text" && c.Text != nil {
				parts[i] = c.Text.Value
			}
		}
		return strings.Join(parts, "\n\n"), true
	}
	return "", false
}
