package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/paperlens/mindmap"
)

func newValidateCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate <response.txt>",
		Short: "Validate a saved mind-map reply and render it",
		Long: `Run the mind-map validator on a saved assistant reply and print the tree.
Surrounding prose is ignored; the JSON object is taken from the first '{' to
the last '}'. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			m, err := mindmap.Parse(string(raw))
			if err != nil {
				var verr *mindmap.ValidationError
				if errors.As(err, &verr) && verr.Path != "" {
					return fmt.Errorf("invalid mind map data at %s: %w", verr.Path, err)
				}
				return fmt.Errorf("invalid mind map data: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Valid: %d nodes, %d relationships\n", m.CountNodes(), len(m.Relationships))
			return mindmap.NewRenderer(!noColor).Render(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
