package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"saver-cli/internal/publish"
)

func newPublishCmd(app *App) *cobra.Command {
	var out string
	var folderID string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Render the tree as a Markdown sheet (values masked unless --reveal)",
		Long: `Render the tree as a Markdown sheet for printing or offline backup.

Without --out the Markdown is printed. Sensitive values stay masked unless the
global --reveal flag is set; a revealed sheet written with --out is created
with mode 0600.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				if out == "" {
					md, err := publish.RenderMarkdown(s.state.Tree, publish.RenderOptions{Reveal: app.Reveal, FolderID: folderID})
					if err != nil {
						return err
					}
					_, err = fmt.Fprint(cmd.OutOrStdout(), md)
					return err
				}
				res, err := publish.WriteFile(s.state.Tree, out, publish.WriteOptions{
					Reveal:    app.Reveal,
					FolderID:  folderID,
					Overwrite: overwrite,
				})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the sheet to this file instead of stdout")
	cmd.Flags().StringVar(&folderID, "folder", "", "Only this folder")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}
