package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"saver-cli/internal/model"
	"saver-cli/internal/mutate"
	"saver-cli/internal/search"
	"saver-cli/internal/transfer"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

type nameBody struct {
	Name string `json:"name"`
}

type itemBody struct {
	Name      *string `json:"name"`
	Value     *string `json:"value"`
	Sensitive *bool   `json:"sensitive"`
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *transfer.ValidationError
	var nf mutate.NotFoundError
	var br badRequest
	switch {
	case errors.As(err, &ve), errors.As(err, &br):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return badRequest{msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

func requireName(name, kind string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", badRequest{msg: kind + " name is required"}
	}
	return name, nil
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.load(r.Context()).Tree)
}

// handlePutTree replaces the whole tree, validating it like an import.
func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		next, err := transfer.Import(st, b)
		return next, next.Tree, err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := transfer.Export(s.load(r.Context()).Tree)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="saver-export.json"`)
	_, _ = w.Write(b)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	res := search.Search(s.load(r.Context()).Tree, r.URL.Query().Get("q"))
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleFolderCreate(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	name, err := requireName(body.Name, "folder")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		next, id := mutate.AddFolder(st, name)
		f, _, _ := next.Tree.FindFolder(id)
		return next, f, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

func (s *Server) handleFolderDelete(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveFolder(st.Tree, folderID); err != nil {
			return st, nil, err
		}
		return mutate.DeleteFolder(st, folderID), map[string]string{"deleted": folderID}, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleSectionCreate(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")
	var body nameBody
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	name, err := requireName(body.Name, "section")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveFolder(st.Tree, folderID); err != nil {
			return st, nil, err
		}
		next, id := mutate.AddSection(st, folderID, name)
		sec, _, _ := next.Tree.FindSection(folderID, id)
		return next, sec, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

func (s *Server) handleSectionDelete(w http.ResponseWriter, r *http.Request) {
	folderID, sectionID := chi.URLParam(r, "folderID"), chi.URLParam(r, "sectionID")
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveSection(st.Tree, folderID, sectionID); err != nil {
			return st, nil, err
		}
		return mutate.DeleteSection(st, folderID, sectionID), map[string]string{"deleted": sectionID}, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleItemCreate(w http.ResponseWriter, r *http.Request) {
	folderID, sectionID := chi.URLParam(r, "folderID"), chi.URLParam(r, "sectionID")
	var body itemBody
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var rawName, value string
	if body.Name != nil {
		rawName = *body.Name
	}
	if body.Value != nil {
		value = *body.Value
	}
	name, err := requireName(rawName, "item")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sensitive := true
	if body.Sensitive != nil {
		sensitive = *body.Sensitive
	}

	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveSection(st.Tree, folderID, sectionID); err != nil {
			return st, nil, err
		}
		next, id := mutate.AddItem(st, folderID, sectionID, name, value, sensitive)
		it, _, _ := next.Tree.FindItem(folderID, sectionID, id)
		return next, it, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

func (s *Server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	folderID, sectionID, itemID := chi.URLParam(r, "folderID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "itemID")
	var body itemBody
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Name != nil {
		name, err := requireName(*body.Name, "item")
		if err != nil {
			s.fail(w, r, err)
			return
		}
		body.Name = &name
	}

	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveItem(st.Tree, folderID, sectionID, itemID); err != nil {
			return st, nil, err
		}
		next := mutate.UpdateItem(st, folderID, sectionID, itemID, mutate.ItemPatch{
			Name:      body.Name,
			Value:     body.Value,
			Sensitive: body.Sensitive,
		})
		it, _, _ := next.Tree.FindItem(folderID, sectionID, itemID)
		return next, it, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	folderID, sectionID, itemID := chi.URLParam(r, "folderID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "itemID")
	out, err := s.update(r.Context(), func(st model.State) (model.State, any, error) {
		if _, err := mutate.ResolveItem(st.Tree, folderID, sectionID, itemID); err != nil {
			return st, nil, err
		}
		return mutate.DeleteItem(st, folderID, sectionID, itemID), map[string]string{"deleted": itemID}, nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
