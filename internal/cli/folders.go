package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
)

func newFoldersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Folder commands",
	}
	cmd.AddCommand(newFoldersAddCmd(app))
	cmd.AddCommand(newFoldersListCmd(app))
	cmd.AddCommand(newFoldersShowCmd(app))
	cmd.AddCommand(newFoldersRenameCmd(app))
	cmd.AddCommand(newFoldersDeleteCmd(app))
	cmd.AddCommand(newFoldersReorderCmd(app))
	cmd.AddCommand(newFoldersMoveCmd(app))
	return cmd
}

func newFoldersAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a folder (an existing folder with the same name is reused)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return writeErr(cmd, errUsage("folder name is empty"))
			}
			return withSession(cmd, app, func(s *session) error {
				_, existed := s.state.Tree.FindFolderByName(name)
				next, id := mutate.AddFolder(s.state, name)
				if !existed {
					if err := s.commit(cmd.Context(), next); err != nil {
						return err
					}
				}
				f, _, _ := next.Tree.FindFolder(id)
				return writeOut(cmd, app, map[string]any{"data": f, "meta": map[string]any{"created": !existed}})
			})
		},
	}
}

func newFoldersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List folders in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				return writeOut(cmd, app, map[string]any{"data": model.Tree(model.SortedFolders(s.state.Tree))})
			})
		},
	}
}

func newFoldersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <folder-id>",
		Short: "Show a folder with its sections and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				f, err := mutate.ResolveFolder(s.state.Tree, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": f})
			})
		},
	}
}

func newFoldersRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder-id> <name>",
		Short: "Rename a folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return writeErr(cmd, errUsage("folder name is empty"))
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveFolder(s.state.Tree, args[0]); err != nil {
					return err
				}
				next := mutate.UpdateFolder(s.state, args[0], name)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				f, _, _ := next.Tree.FindFolder(args[0])
				return writeOut(cmd, app, map[string]any{"data": f})
			})
		},
	}
}

func newFoldersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <folder-id>",
		Short: "Delete a folder with all its sections and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				f, err := mutate.ResolveFolder(s.state.Tree, args[0])
				if err != nil {
					return err
				}
				if err := s.commit(cmd.Context(), mutate.DeleteFolder(s.state, f.ID)); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": f.ID}})
			})
		},
	}
}

func newFoldersReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <folder-id>...",
		Short: "Set the display order of all folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				var want []string
				for _, f := range s.state.Tree {
					want = append(want, f.ID)
				}
				if err := checkOrder("folder", want, args); err != nil {
					return err
				}
				ordered := make([]model.Folder, 0, len(args))
				for _, id := range args {
					f, _, _ := s.state.Tree.FindFolder(id)
					ordered = append(ordered, f)
				}
				next := mutate.ReorderFolders(s.state, ordered)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": next.Tree})
			})
		},
	}
}

func newFoldersMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <folder-id> <position>",
		Short: "Move a folder to a 0-based display position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return writeErr(cmd, errUsage("invalid position %q", args[1]))
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveFolder(s.state.Tree, args[0]); err != nil {
					return err
				}
				next := mutate.MoveFolderTo(s.state, args[0], pos)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": model.Tree(model.SortedFolders(next.Tree))})
			})
		},
	}
}
