package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Addr string
	Key  string
	// Token, when set, is required as "Authorization: Bearer <token>" on /api
	// and /ws.
	Token string
}

type Server struct {
	cfg   ServerConfig
	store *store.Store
	log   *zap.Logger

	// mu serializes load-modify-save so concurrent requests don't drop writes.
	mu  sync.Mutex
	hub *treeHub
}

func NewServer(cfg ServerConfig, st *store.Store, log *zap.Logger) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Key = strings.TrimSpace(cfg.Key)
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if st == nil {
		return nil, errors.New("web: store is nil")
	}
	if cfg.Key == "" {
		cfg.Key = store.DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, store: st, log: log, hub: newTreeHub()}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.cfg.Token, s.log))
		r.Get("/ws", s.handleWS)
		r.Get("/print", s.handlePrint)
		r.Route("/api", func(r chi.Router) {
			r.Get("/tree", s.handleGetTree)
			r.Put("/tree", s.handlePutTree)
			r.Get("/export", s.handleExport)
			r.Get("/search", s.handleSearch)

			r.Post("/folders", s.handleFolderCreate)
			r.Delete("/folders/{folderID}", s.handleFolderDelete)
			r.Post("/folders/{folderID}/sections", s.handleSectionCreate)
			r.Delete("/folders/{folderID}/sections/{sectionID}", s.handleSectionDelete)
			r.Post("/folders/{folderID}/sections/{sectionID}/items", s.handleItemCreate)
			r.Patch("/folders/{folderID}/sections/{sectionID}/items/{itemID}", s.handleItemUpdate)
			r.Delete("/folders/{folderID}/sections/{sectionID}/items/{itemID}", s.handleItemDelete)
		})
	})
	return r
}

// Follow forwards trees written by other instances to websocket clients
// until ctx is cancelled.
func (s *Server) Follow(ctx context.Context) error {
	ch, cancel, err := s.store.Subscribe(ctx, s.cfg.Key)
	if err != nil {
		return err
	}
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-ch:
				if !ok {
					return
				}
				s.hub.broadcast(t)
			}
		}
	}()
	return nil
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Follow(ctx); err != nil {
		s.log.Warn("live updates disabled", zap.Error(err))
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) load(ctx context.Context) model.State {
	t := s.store.Load(ctx, s.cfg.Key, model.Tree{})
	return model.State{Tree: t, Selection: mutate.SelectFirst(t)}
}

// update applies fn to the current tree and persists the result. fn returns
// the next state and the value to respond with.
func (s *Server) update(ctx context.Context, fn func(model.State) (model.State, any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, out, err := fn(s.load(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, s.cfg.Key, next.Tree); err != nil {
		return nil, err
	}
	s.hub.broadcast(next.Tree)
	return out, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
