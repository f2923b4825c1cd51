package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"saver-cli/internal/clipboard"
	"saver-cli/internal/transfer"
)

// systemClipboard is swapped out in tests.
var systemClipboard clipboard.Writer = clipboard.System{}

func newExportCmd(app *App) *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the whole tree as indented JSON to the clipboard",
		Long:  "Copy the whole tree as indented JSON to the clipboard. If no clipboard is available the JSON is printed instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				b, err := transfer.Export(s.state.Tree)
				if err != nil {
					return err
				}
				if stdout {
					_, err := cmd.OutOrStdout().Write(b)
					return err
				}
				copied, err := clipboard.Deliver(systemClipboard, cmd.OutOrStdout(), string(b))
				if err != nil {
					return err
				}
				if copied {
					return writeOut(cmd, app, map[string]any{"data": map[string]any{
						"copied":  true,
						"folders": len(s.state.Tree),
						"items":   s.state.Tree.ItemCount(),
						"bytes":   len(b),
					}})
				}
				app.log.Warn("clipboard unavailable; printed export instead")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the JSON instead of copying it")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole tree with a validated JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return withSession(cmd, app, func(s *session) error {
				next, err := transfer.Import(s.state, b)
				if err != nil {
					return err
				}
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"folders":   len(next.Tree),
					"items":     next.Tree.ItemCount(),
					"selection": next.Selection,
				}})
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
