package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/paperlens"
	"github.com/brunobiangulo/paperlens/parser"
	"github.com/brunobiangulo/paperlens/report"
)

type analyzeOptions struct {
	configPath string
	noColor    bool
	xlsxPath   string
	timeout    time.Duration
	width      int
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Run all four analyses on a paper",
		Long: `Upload a PDF and run the mind map, insights, research impact and future
directions analyses in parallel. Each panel shows its own result or error;
one failed analysis does not stop the others.

Use --xlsx to also export the results as a workbook.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAnalyze(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file (YAML or JSON)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Write an XLSX report to this path")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Bound each assistant run (0 waits for completion)")
	cmd.Flags().IntVar(&opts.width, "width", 100, "Wrap text panels at this width")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, path string, opts analyzeOptions) error {
	cfg, err := paperlens.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.timeout > 0 {
		cfg.RunTimeout = opts.timeout
	}

	analyzer, err := paperlens.New(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading paper: %w", err)
	}
	name := filepath.Base(path)

	out := cmd.OutOrStdout()
	p, err := newPanels(out, !opts.noColor, opts.width)
	if err != nil {
		return err
	}

	s := paperlens.NewSession()
	if err := s.SelectFile(name, parser.DetectContentType(name, "", data), data); err != nil {
		p.Print(s.Snapshot())
		return err
	}
	if info := s.File().Info; info != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s (%d pages)...\n", name, info.Pages)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s...\n", name)
	}

	if err := analyzer.Analyze(ctx, s); err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}

	snap := s.Snapshot()
	if err := p.Print(snap); err != nil {
		return err
	}

	if opts.xlsxPath != "" {
		if err := writeReport(opts.xlsxPath, snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", opts.xlsxPath)
	}

	if n := countErrors(snap); n > 0 {
		return fmt.Errorf("%d of %d analyses failed", n, len(snap.Results))
	}
	return nil
}

func writeReport(path string, snap paperlens.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.Write(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func countErrors(snap paperlens.Snapshot) int {
	n := 0
	for _, r := range snap.Results {
		if r.Status == paperlens.StatusError {
			n++
		}
	}
	return n
}
