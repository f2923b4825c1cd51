package cli

import (
	"github.com/spf13/cobra"

	"saver-cli/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings in ~/.saver/config.json",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration (file, environment and flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]any{
				"data": app.cfg,
				"meta": map[string]any{"file": app.v.ConfigFileUsed()},
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigFile
			if path == "" {
				p, err := store.ConfigPath()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}
			if err := store.SaveConfigValue(path, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"file": path, "key": args[0], "value": args[1]}})
		},
	})
	return cmd
}
