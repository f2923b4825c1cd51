package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"saver-cli/internal/mutate"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"section"},
		Short:   "Section commands",
	}
	cmd.AddCommand(newSectionsAddCmd(app))
	cmd.AddCommand(newSectionsListCmd(app))
	cmd.AddCommand(newSectionsRenameCmd(app))
	cmd.AddCommand(newSectionsDeleteCmd(app))
	return cmd
}

func newSectionsAddCmd(app *App) *cobra.Command {
	var folderID string
	cmd := &cobra.Command{
		Use:   "add --folder <folder-id> <name>",
		Short: "Add a section to a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return writeErr(cmd, errUsage("section name is empty"))
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveFolder(s.state.Tree, folderID); err != nil {
					return err
				}
				next, id := mutate.AddSection(s.state, folderID, name)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				sec, _, _ := next.Tree.FindSection(folderID, id)
				return writeOut(cmd, app, map[string]any{"data": sec})
			})
		},
	}
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder id")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newSectionsListCmd(app *App) *cobra.Command {
	var folderID string
	cmd := &cobra.Command{
		Use:   "list --folder <folder-id>",
		Short: "List the sections of a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				f, err := mutate.ResolveFolder(s.state.Tree, folderID)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": f.Sections})
			})
		},
	}
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder id")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newSectionsRenameCmd(app *App) *cobra.Command {
	var folderID string
	cmd := &cobra.Command{
		Use:   "rename --folder <folder-id> <section-id> <name>",
		Short: "Rename a section",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return writeErr(cmd, errUsage("section name is empty"))
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveSection(s.state.Tree, folderID, args[0]); err != nil {
					return err
				}
				next := mutate.UpdateSection(s.state, folderID, args[0], name)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				sec, _, _ := next.Tree.FindSection(folderID, args[0])
				return writeOut(cmd, app, map[string]any{"data": sec})
			})
		},
	}
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder id")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newSectionsDeleteCmd(app *App) *cobra.Command {
	var folderID string
	cmd := &cobra.Command{
		Use:   "delete --folder <folder-id> <section-id>",
		Short: "Delete a section with all its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveSection(s.state.Tree, folderID, args[0]); err != nil {
					return err
				}
				if err := s.commit(cmd.Context(), mutate.DeleteSection(s.state, folderID, args[0])); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
			})
		},
	}
	cmd.Flags().StringVar(&folderID, "folder", "", "Folder id")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}
