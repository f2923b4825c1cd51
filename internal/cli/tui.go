package cli

import (
	"github.com/spf13/cobra"

	"saver-cli/internal/store"
	"saver-cli/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive TUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	s, err := store.Open(cmd.Context(), app.cfg, app.log)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	if err := tui.Run(cmd.Context(), tui.Options{
		Store: s,
		Key:   app.cfg.Key,
		Log:   app.log,
	}); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
