package cli

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saver-cli/internal/store"
	"saver-cli/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var token string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over HTTP (JSON API + websocket updates)",
		Long: strings.TrimSpace(`
Serve the stored tree over HTTP.

  GET    /healthz
  GET    /api/tree              PUT /api/tree (validated like an import)
  GET    /api/export            GET /api/search?q=
  POST   /api/folders           DELETE /api/folders/{id}
  POST   /api/folders/{id}/sections
  POST   /api/folders/{id}/sections/{id}/items
  PATCH  /api/folders/{id}/sections/{id}/items/{id}
  GET    /ws                    pushes {"type":"tree","data":[...]} on every change

With a token set, /api and /ws require "Authorization: Bearer <token>".
`),
		Example: strings.TrimSpace(`
# Serve on the configured address (default 127.0.0.1:8765)
saver serve

# Any free port, shared with other instances through redis
saver --backend redis --bus redis serve --addr 127.0.0.1:0
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Addr
			}
			if !cmd.Flags().Changed("token") {
				token = app.cfg.Token
			}

			s, err := store.Open(cmd.Context(), app.cfg, app.log)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:  listenAddr,
				Key:   app.cfg.Key,
				Token: token,
			}, s, app.log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"backend":   app.cfg.Backend,
					"bus":       app.cfg.Bus,
					"key":       app.cfg.Key,
					"auth":      token != "",
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "saver serving at %s (key=%s)\n", url, app.cfg.Key)

			if err := srv.Serve(cmd.Context(), ln); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default from config)")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token (default from config / SAVER_TOKEN)")
	return cmd
}
