package cli

import (
	"github.com/spf13/cobra"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
)

// itemScope holds the --folder/--section pair every item command needs.
type itemScope struct {
	folderID  string
	sectionID string
}

func (sc *itemScope) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sc.folderID, "folder", "", "Folder id")
	cmd.Flags().StringVar(&sc.sectionID, "section", "", "Section id")
	_ = cmd.MarkFlagRequired("folder")
	_ = cmd.MarkFlagRequired("section")
}

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Item commands",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsSetCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsReorderCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var sc itemScope
	var sensitive bool
	cmd := &cobra.Command{
		Use:   "add --folder <folder-id> --section <section-id> <name> <value>",
		Short: "Add an item to a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return writeErr(cmd, errUsage("item name is empty"))
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveSection(s.state.Tree, sc.folderID, sc.sectionID); err != nil {
					return err
				}
				next, id := mutate.AddItem(s.state, sc.folderID, sc.sectionID, args[0], args[1], sensitive)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				it, _, _ := next.Tree.FindItem(sc.folderID, sc.sectionID, id)
				return writeOut(cmd, app, map[string]any{"data": it})
			})
		},
	}
	sc.bind(cmd)
	cmd.Flags().BoolVar(&sensitive, "sensitive", true, "Hide the value on screen until revealed")
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	var sc itemScope
	cmd := &cobra.Command{
		Use:   "list --folder <folder-id> --section <section-id>",
		Short: "List a section's items in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				sec, err := mutate.ResolveSection(s.state.Tree, sc.folderID, sc.sectionID)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": model.SortedItems(sec)})
			})
		},
	}
	sc.bind(cmd)
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	var sc itemScope
	cmd := &cobra.Command{
		Use:   "show --folder <folder-id> --section <section-id> <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				it, err := mutate.ResolveItem(s.state.Tree, sc.folderID, sc.sectionID, args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": it})
			})
		},
	}
	sc.bind(cmd)
	return cmd
}

func newItemsSetCmd(app *App) *cobra.Command {
	var sc itemScope
	var name, value string
	var sensitive bool
	cmd := &cobra.Command{
		Use:   "set --folder <folder-id> --section <section-id> <item-id> [--name N] [--value V] [--sensitive=B]",
		Short: "Change an item; flags left out keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch mutate.ItemPatch
			if cmd.Flags().Changed("name") {
				if name == "" {
					return writeErr(cmd, errUsage("item name is empty"))
				}
				patch.Name = &name
			}
			if cmd.Flags().Changed("value") {
				patch.Value = &value
			}
			if cmd.Flags().Changed("sensitive") {
				patch.Sensitive = &sensitive
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveItem(s.state.Tree, sc.folderID, sc.sectionID, args[0]); err != nil {
					return err
				}
				next := mutate.UpdateItem(s.state, sc.folderID, sc.sectionID, args[0], patch)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				it, _, _ := next.Tree.FindItem(sc.folderID, sc.sectionID, args[0])
				return writeOut(cmd, app, map[string]any{"data": it})
			})
		},
	}
	sc.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&value, "value", "", "New value")
	cmd.Flags().BoolVar(&sensitive, "sensitive", true, "Hide the value on screen until revealed")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	var sc itemScope
	cmd := &cobra.Command{
		Use:   "delete --folder <folder-id> --section <section-id> <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveItem(s.state.Tree, sc.folderID, sc.sectionID, args[0]); err != nil {
					return err
				}
				if err := s.commit(cmd.Context(), mutate.DeleteItem(s.state, sc.folderID, sc.sectionID, args[0])); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
			})
		},
	}
	sc.bind(cmd)
	return cmd
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var sc itemScope
	var toFolder, toSection string
	cmd := &cobra.Command{
		Use:   "move --folder <folder-id> --section <section-id> <item-id> --to-folder <folder-id> --to-section <section-id>",
		Short: "Move an item to the end of another section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toFolder == "" {
				toFolder = sc.folderID
			}
			return withSession(cmd, app, func(s *session) error {
				if _, err := mutate.ResolveItem(s.state.Tree, sc.folderID, sc.sectionID, args[0]); err != nil {
					return err
				}
				if _, err := mutate.ResolveSection(s.state.Tree, toFolder, toSection); err != nil {
					return err
				}
				next := mutate.MoveItem(s.state, sc.folderID, sc.sectionID, args[0], toFolder, toSection)
				_, _, stayed := next.Tree.FindItem(sc.folderID, sc.sectionID, args[0])
				if !stayed {
					if err := s.commit(cmd.Context(), next); err != nil {
						return err
					}
				}
				dstF, dstS := toFolder, toSection
				if stayed {
					dstF, dstS = sc.folderID, sc.sectionID
				}
				it, _, _ := next.Tree.FindItem(dstF, dstS, args[0])
				return writeOut(cmd, app, map[string]any{
					"data": it,
					"meta": map[string]any{"moved": !stayed, "folder": dstF, "section": dstS},
				})
			})
		},
	}
	sc.bind(cmd)
	cmd.Flags().StringVar(&toFolder, "to-folder", "", "Destination folder id (default: the source folder)")
	cmd.Flags().StringVar(&toSection, "to-section", "", "Destination section id")
	_ = cmd.MarkFlagRequired("to-section")
	return cmd
}

func newItemsReorderCmd(app *App) *cobra.Command {
	var sc itemScope
	cmd := &cobra.Command{
		Use:   "reorder --folder <folder-id> --section <section-id> <item-id>...",
		Short: "Set the display order of every item in a section",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				sec, err := mutate.ResolveSection(s.state.Tree, sc.folderID, sc.sectionID)
				if err != nil {
					return err
				}
				var want []string
				for _, it := range sec.Items {
					want = append(want, it.ID)
				}
				if err := checkOrder("item", want, args); err != nil {
					return err
				}
				ordered := make([]model.Item, 0, len(args))
				for _, id := range args {
					it, _, _ := sec.FindItem(id)
					ordered = append(ordered, it)
				}
				next := mutate.ReorderItems(s.state, sc.folderID, sc.sectionID, ordered)
				if err := s.commit(cmd.Context(), next); err != nil {
					return err
				}
				sec, _, _ = next.Tree.FindSection(sc.folderID, sc.sectionID)
				return writeOut(cmd, app, map[string]any{"data": model.SortedItems(sec)})
			})
		},
	}
	sc.bind(cmd)
	return cmd
}
