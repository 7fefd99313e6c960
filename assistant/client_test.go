package assistant_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brunobiangulo/paperlens/assistant"
	"github.com/brunobiangulo/paperlens/assistant/assistanttest"
)

func TestClientCancelledContext(t *testing.T) {
	// Never leaves the process: the context is already cancelled.
	c := assistant.NewClient(assistant.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CreateThread(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateThread with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestClientUploadFile(t *testing.T) {
	srv := assistanttest.NewServer(t)
	c := assistant.NewClient(srv.Config())

	f, err := c.UploadFile(context.Background(), "paper.pdf", strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("UploadFile returned error: %v", err)
	}
	if f.ID == "" {
		t.Fatal("expected a file id")
	}
	if f.Filename != "paper.pdf" || f.Purpose != "assistants" {
		t.Errorf("file = %+v", f)
	}
	if got := string(srv.Uploaded(f.ID)); got != "%PDF-1.4 body" {
		t.Errorf("uploaded bytes = %q", got)
	}
}

func TestClientAPIError(t *testing.T) {
	srv := assistanttest.NewServer(t)
	srv.FailUploads(http.StatusServiceUnavailable)
	c := assistant.NewClient(srv.Config())

	_, err := c.UploadFile(context.Background(), "paper.pdf", strings.NewReader("x"))
	var apiErr *assistant.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if apiErr.Message != "upload rejected" {
		t.Errorf("message = %q, want %q", apiErr.Message, "upload rejected")
	}
}

func TestClientSendsAPIKey(t *testing.T) {
	srv := assistanttest.NewServer(t)
	cfg := srv.Config()
	cfg.APIKey = "sk-wrong"
	c := assistant.NewClient(cfg)

	_, err := c.CreateThread(context.Background())
	var apiErr *assistant.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want 401 APIError", err)
	}
}

func TestRunnerAgainstServer(t *testing.T) {
	srv := assistanttest.NewServer(t)
	srv.Script("asst_ideas", assistanttest.Script{
		Statuses: []assistant.RunStatus{assistant.RunQueued, assistant.RunInProgress, assistant.RunCompleted},
		Reply:    []string{"1. Replicate in a larger cohort", "2. Longer follow-up"},
	})
	c := assistant.NewClient(srv.Config())

	f, err := c.UploadFile(context.Background(), "paper.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	r := assistant.NewRunner(c, time.Millisecond)
	got, err := r.Run(context.Background(), assistant.Task{
		Name:        "RESEARCH_IDEAS",
		AssistantID: "asst_ideas",
		FileID:      f.ID,
		Prompt:      "suggest follow-ups",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := "1. Replicate in a larger cohort\n\n2. Longer follow-up"
	if got != want {
		t.Errorf("Run = %q, want %q", got, want)
	}
	if p := srv.Prompt("asst_ideas"); p != "suggest follow-ups" {
		t.Errorf("prompt seen by server = %q", p)
	}
}

func TestRunnerAgainstServerFailure(t *testing.T) {
	srv := assistanttest.NewServer(t)
	srv.Script("asst_map", assistanttest.Script{
		Statuses: []assistant.RunStatus{assistant.RunInProgress, assistant.RunFailed},
	})
	c := assistant.NewClient(srv.Config())

	_, err := assistant.NewRunner(c, time.Millisecond).Run(context.Background(), assistant.Task{
		Name:        "MIND_MAP",
		AssistantID: "asst_map",
		FileID:      "file_x",
	})
	if !errors.Is(err, assistant.ErrRunFailed) {
		t.Fatalf("error = %v, want ErrRunFailed", err)
	}
	if !strings.Contains(err.Error(), "scripted failure") {
		t.Errorf("error %q does not carry the run's last_error", err)
	}
}
