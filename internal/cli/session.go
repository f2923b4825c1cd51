package cli

import (
	"context"

	"github.com/spf13/cobra"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/store"
)

// session is one command's view of the stored tree. The CLI keeps no
// selection between runs, so every load starts from the first folder.
type session struct {
	store *store.Store
	key   string
	state model.State
}

func openSession(cmd *cobra.Command, app *App) (*session, error) {
	s, err := store.Open(cmd.Context(), app.cfg, app.log)
	if err != nil {
		return nil, err
	}
	tree := s.Load(cmd.Context(), app.cfg.Key, model.Tree{})
	return &session{
		store: s,
		key:   app.cfg.Key,
		state: model.State{Tree: tree, Selection: mutate.SelectFirst(tree)},
	}, nil
}

func (s *session) commit(ctx context.Context, next model.State) error {
	if err := s.store.Save(ctx, s.key, next.Tree); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *session) Close() { _ = s.store.Close() }

// withSession opens the store, runs fn and always closes it again.
func withSession(cmd *cobra.Command, app *App, fn func(*session) error) error {
	s, err := openSession(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()
	if err := fn(s); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// checkOrder verifies ids is a permutation of want.
func checkOrder(kind string, want, ids []string) error {
	seen := map[string]int{}
	for _, id := range ids {
		seen[id]++
	}
	var missing, repeated []string
	for _, id := range want {
		if seen[id] == 0 {
			missing = append(missing, id)
		}
	}
	for _, id := range ids {
		if seen[id] > 1 {
			repeated = append(repeated, id)
			seen[id] = 1
		}
	}
	known := map[string]bool{}
	for _, id := range want {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return mutate.NotFoundError{Kind: kind, ID: id}
		}
	}
	if len(missing) > 0 || len(repeated) > 0 || len(ids) != len(want) {
		return errIncompleteOrder(kind, missing, repeated)
	}
	return nil
}
