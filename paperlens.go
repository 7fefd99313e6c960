// Package paperlens analyzes research papers with four hosted assistants: a
// mind map, key insights, achievements and future research directions.
//
// A Session holds the selected PDF and the four per-kind results; an Analyzer
// uploads the paper once and drives the four assistant runs in parallel,
// writing each outcome into the session as it arrives.
package paperlens

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/paperlens/assistant"
)

// Uploader stores a paper with the assistant service and returns its handle.
type Uploader interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (*assistant.File, error)
}

// Analyzer runs the four analyses for a session.
type Analyzer struct {
	cfg      Config
	uploader Uploader
	runner   *assistant.Runner
}

// New creates an Analyzer talking to the Assistants API described by cfg.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := assistant.NewClient(assistant.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.HTTPTimeout,
	})
	return &Analyzer{
		cfg:      cfg,
		uploader: client,
		runner:   assistant.NewRunner(client, cfg.PollInterval).WithTimeout(cfg.RunTimeout),
	}, nil
}

// Start moves all four kinds of s to loading before returning, then uploads
// the paper and runs the four analyses in the background. The returned
// channel is closed once every kind has settled. Cancelling ctx, selecting a
// new file or closing the session stops the analysis.
func (a *Analyzer) Start(ctx context.Context, s *Session) (<-chan struct{}, error) {
	ctx, cancel := context.WithCancel(ctx)
	gen, file, done, err := s.begin(cancel)
	if err != nil {
		cancel()
		return nil, err
	}

	slog.Info("analysis: started", "session", s.ID, "file", file.Name, "bytes", len(file.Data))

	go func() {
		defer s.finish(gen, done)
		defer cancel()
		a.run(ctx, s, gen, file)
	}()
	return done, nil
}

// Analyze is Start followed by waiting for the analysis to settle. Per-kind
// failures are recorded on the session, not returned.
func (a *Analyzer) Analyze(ctx context.Context, s *Session) error {
	done, err := a.Start(ctx, s)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}
}

func (a *Analyzer) run(ctx context.Context, s *Session, gen int, file *File) {
	start := time.Now()

	uploaded, err := a.uploader.UploadFile(ctx, file.Name, bytes.NewReader(file.Data))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUploadFailed, err)
		slog.Error("analysis: upload failed", "session", s.ID, "file", file.Name, "error", err)
		s.failAll(gen, err)
		return
	}

	// Tasks never return an error to the group so one failure cannot cancel
	// the others.
	var g errgroup.Group
	for _, k := range Kinds {
		g.Go(func() error {
			a.runKind(ctx, s, gen, uploaded.ID, k)
			return nil
		})
	}
	g.Wait()

	slog.Info("analysis: finished",
		"session", s.ID,
		"file", file.Name,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

func (a *Analyzer) runKind(ctx context.Context, s *Session, gen int, fileID string, k Kind) {
	start := time.Now()

	raw, err := a.runner.Run(ctx, assistant.Task{
		Name:        string(k),
		AssistantID: a.cfg.Assistants.ID(k),
		FileID:      fileID,
		Prompt:      Prompt(k),
	})
	if err == nil {
		res, m, herr := HandleResponse(k, raw)
		if herr == nil {
			if s.complete(gen, res, m) {
				slog.Info("analysis: task complete", "session", s.ID, "kind", k, "elapsed", time.Since(start).Round(time.Millisecond))
			}
			return
		}
		err = herr
	}

	if s.fail(gen, k, err) {
		slog.Warn("analysis: task failed", "session", s.ID, "kind", k, "error", err)
	}
}
