package cli

import (
	"github.com/spf13/cobra"

	"saver-cli/internal/store"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the stored tree for duplicate ids, index clashes and legacy records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				report := s.store.Doctor(cmd.Context(), s.key)

				fixed := false
				if fix && !report.Empty && len(report.Issues) > 0 {
					// Load already migrated the tree; saving writes it back normalized.
					if err := s.commit(cmd.Context(), s.state); err != nil {
						return err
					}
					fixed = true
					report = s.store.Doctor(cmd.Context(), s.key)
				}

				if err := writeOut(cmd, app, map[string]any{
					"data": report,
					"meta": map[string]any{
						"issues":    len(report.Issues),
						"hasErrors": report.HasErrors(),
						"fixed":     fixed,
					},
				}); err != nil {
					return err
				}
				if fail && report.HasErrors() {
					return store.ErrDoctorIssuesFound
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	cmd.Flags().BoolVar(&fix, "fix", false, "Rewrite the stored tree through the migration pass")
	return cmd
}
