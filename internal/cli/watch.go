package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the tree each time another instance writes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(s *session) error {
				ctx := cmd.Context()
				trees, cancel, err := s.store.Subscribe(ctx, s.key)
				if err != nil {
					return err
				}
				defer cancel()
				app.log.Info("watching", zap.String("key", s.key), zap.String("bus", app.cfg.Bus))
				for {
					select {
					case <-ctx.Done():
						return nil
					case t, ok := <-trees:
						if !ok {
							return nil
						}
						if err := writeOut(cmd, app, map[string]any{
							"data": t,
							"meta": map[string]any{"at": time.Now().UTC().Format(time.RFC3339Nano)},
						}); err != nil {
							return err
						}
					}
				}
			})
		},
	}
}
