package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"saver-cli/internal/format"
	"saver-cli/internal/store"
)

type App struct {
	ConfigFile string
	PrettyJSON bool
	Format     string
	Reveal     bool

	v   *viper.Viper
	cfg store.Config
	log *zap.Logger
}

// flagKeys maps persistent flags onto config keys; a flag only wins over the
// config file and environment when it is set explicitly.
var flagKeys = map[string]string{
	"dir":       "dir",
	"backend":   "backend",
	"key":       "key",
	"redis-url": "redis_url",
	"bus":       "bus",
	"log-level": "log_level",
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "saver",
		Short:        "Keep named values in folders and sections (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  saver

  # Scriptable commands
  saver folders add Work
  saver items list --folder fld-abcd1234 --section sec-efgh5678 --format text

  # Find anything mentioning "wifi"
  saver search wifi
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", envOr("SAVER_CONFIG", ""), "Config file (default: ~/.saver/config.json)")
	pf.String("dir", "", "Data directory for the file and sqlite backends")
	pf.String("backend", "", "Storage backend (file|sqlite|redis)")
	pf.String("key", "", "Slot key holding the tree (default: saver-folders)")
	pf.String("redis-url", "", "Redis URL for the redis backend or bus")
	pf.String("bus", "", "Change feed between instances (none|memory|poll|redis)")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.Format, "format", envOr("SAVER_FORMAT", "json"), "Output format (json|text)")
	pf.BoolVar(&app.Reveal, "reveal", false, "Show sensitive values in text output")

	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func (app *App) init(cmd *cobra.Command) error {
	v, err := store.NewViper(app.ConfigFile)
	if err != nil {
		return writeErr(cmd, err)
	}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return writeErr(cmd, err)
			}
		}
	}
	cfg, err := store.LoadConfig(v)
	if err != nil {
		return writeErr(cmd, err)
	}
	log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return writeErr(cmd, err)
	}
	app.v, app.cfg, app.log = v, cfg, log
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, format.Options{
		Format: app.Format,
		Pretty: app.PrettyJSON,
		Reveal: app.Reveal,
	})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
