package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"saver-cli/internal/search"
)

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find items by folder, section, item name or value (case-insensitive)",
		Long: strings.TrimSpace(`
Search every folder, section and item for a substring (case-insensitive).

A folder or section whose name matches contributes all of its items. An empty
query reports "searched": false instead of an empty result.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				return writeOut(cmd, app, map[string]any{"data": search.Search(s.state.Tree, strings.Join(args, " "))})
			})
		},
	}
}
