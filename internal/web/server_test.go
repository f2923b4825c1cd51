package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saver-cli/internal/model"
	"saver-cli/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTree() model.Tree {
	return model.Tree{
		{ID: "fld-a", Name: "Work", Index: 0, Sections: []model.Section{
			{ID: "sec-1", Name: "Logins", Items: []model.Item{
				{ID: "itm-1", Name: "vpn", Value: "tunnel", Sensitive: true, Index: 0},
			}},
		}},
	}
}

func newTestServer(t *testing.T, cfg ServerConfig, st *store.Store) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	s, err := NewServer(cfg, st, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(store.NewMemSlot(), nil, nil)
	require.NoError(t, st.Save(context.Background(), store.DefaultKey, fixtureTree()))
	return st
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func do(t *testing.T, method, url, body string, header http.Header) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(bytes.TrimSpace(b)) > 0 {
		require.NoError(t, json.Unmarshal(b, &env), "body: %s", b)
	}
	return res.StatusCode, env
}

func TestNewServer_Validates(t *testing.T) {
	_, err := NewServer(ServerConfig{}, store.New(store.NewMemSlot(), nil, nil), nil)
	assert.Error(t, err)
	_, err = NewServer(ServerConfig{Addr: ":0"}, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, seededStore(t))
	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok\n", string(b))
}

func TestAPI_CreateUpdateDelete(t *testing.T) {
	st := seededStore(t)
	_, ts := newTestServer(t, ServerConfig{}, st)

	code, env := do(t, http.MethodPost, ts.URL+"/api/folders", `{"name":"Home"}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var folder model.Folder
	require.NoError(t, json.Unmarshal(env.Data, &folder))
	assert.Equal(t, "Home", folder.Name)
	assert.Equal(t, 1, folder.Index)

	code, env = do(t, http.MethodPost, ts.URL+"/api/folders/"+folder.ID+"/sections", `{"name":"Wifi"}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var section model.Section
	require.NoError(t, json.Unmarshal(env.Data, &section))

	itemsURL := ts.URL + "/api/folders/" + folder.ID + "/sections/" + section.ID + "/items"
	code, env = do(t, http.MethodPost, itemsURL, `{"name":"guest","value":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var item model.Item
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.True(t, item.Sensitive, "new items default to sensitive")

	code, env = do(t, http.MethodPatch, itemsURL+"/"+item.ID, `{"sensitive":false}`, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.False(t, item.Sensitive)
	assert.Equal(t, "guest", item.Name)
	assert.Equal(t, "pw", item.Value)

	saved := st.Load(context.Background(), store.DefaultKey, nil)
	got, _, ok := saved.FindItem(folder.ID, section.ID, item.ID)
	require.True(t, ok)
	assert.False(t, got.Sensitive)

	code, _ = do(t, http.MethodDelete, itemsURL+"/"+item.ID, "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodDelete, ts.URL+"/api/folders/"+folder.ID+"/sections/"+section.ID, "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodDelete, ts.URL+"/api/folders/"+folder.ID, "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, st.Load(context.Background(), store.DefaultKey, nil), 1)
}

func TestAPI_Errors(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, seededStore(t))

	code, env := do(t, http.MethodPost, ts.URL+"/api/folders", `{"name":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "folder name is required", env.Error)

	code, _ = do(t, http.MethodPost, ts.URL+"/api/folders", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, http.MethodDelete, ts.URL+"/api/folders/fld-404", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "folder not found: fld-404", env.Error)

	code, _ = do(t, http.MethodPatch, ts.URL+"/api/folders/fld-a/sections/sec-1/items/itm-404", `{"value":"x"}`, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_PutTreeValidates(t *testing.T) {
	st := seededStore(t)
	_, ts := newTestServer(t, ServerConfig{}, st)

	code, env := do(t, http.MethodPut, ts.URL+"/api/tree", `{"not":"an array"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "imported data must be an array", env.Error)
	assert.Len(t, st.Load(context.Background(), store.DefaultKey, nil), 1, "rejected import must not touch the store")

	code, env = do(t, http.MethodPut, ts.URL+"/api/tree",
		`[{"id":"fld-x","name":"X","sections":[{"id":"sec-x","name":"S","items":[{"id":"itm-x","name":"n","value":"v"}]}]}]`, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = do(t, http.MethodGet, ts.URL+"/api/tree", "", nil)
	require.Equal(t, http.StatusOK, code)
	var tree model.Tree
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "fld-x", tree[0].ID)
	assert.True(t, tree[0].Sections[0].Items[0].Sensitive, "legacy items default to sensitive")
}

func TestAPI_ExportAndSearch(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, seededStore(t))

	res, err := http.Get(ts.URL + "/api/export")
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "saver-export.json")
	assert.True(t, strings.HasPrefix(string(b), "[\n  {"), "expected indented JSON; got %s", b)

	code, env := do(t, http.MethodGet, ts.URL+"/api/search?q=VPN", "", nil)
	require.Equal(t, http.StatusOK, code)
	var result struct {
		Searched bool `json:"searched"`
		Matches  []struct {
			Item model.Item `json:"item"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Searched)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "itm-1", result.Matches[0].Item.ID)
}

func TestAPI_BearerToken(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{Token: "s3cret"}, seededStore(t))

	code, env := do(t, http.MethodGet, ts.URL+"/api/tree", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "missing bearer token", env.Error)

	code, _ = do(t, http.MethodGet, ts.URL+"/api/tree", "", http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, http.MethodGet, ts.URL+"/api/tree", "", http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, code)

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func readTree(t *testing.T, conn *websocket.Conn) model.Tree {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMsg
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tree", msg.Type)
	return msg.Data
}

func TestWS_PushesLocalAndRemoteChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slot := store.NewMemSlot()
	bus := store.NewMemBus()
	st := store.New(slot, bus, nil)
	other := store.New(slot, bus, nil)
	require.NoError(t, st.Save(ctx, store.DefaultKey, fixtureTree()))

	s, ts := newTestServer(t, ServerConfig{}, st)
	require.NoError(t, s.Follow(ctx))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readTree(t, conn)
	require.Len(t, initial, 1)

	code, env := do(t, http.MethodPost, ts.URL+"/api/folders", `{"name":"Home"}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	afterPost := readTree(t, conn)
	require.Len(t, afterPost, 2)
	assert.Equal(t, "Home", afterPost[1].Name)

	remote := append(afterPost.Clone(), model.Folder{ID: "fld-r", Name: "Remote", Index: 2, Sections: []model.Section{}})
	require.NoError(t, other.Save(ctx, store.DefaultKey, remote))
	fromRemote := readTree(t, conn)
	require.Len(t, fromRemote, 3)
	assert.Equal(t, "fld-r", fromRemote[2].ID)
}

func TestWS_RejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, seededStore(t))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	host := strings.TrimPrefix(ts.URL, "http://")

	for _, origin := range []string{
		"http://" + host + ".attacker.example",
		"http://attacker.example/" + host,
		"null",
	} {
		conn, res, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {origin}})
		if conn != nil {
			conn.Close()
		}
		require.Error(t, err, origin)
		require.NotNil(t, res, origin)
		assert.Equal(t, http.StatusForbidden, res.StatusCode, origin)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://" + strings.ToUpper(host)}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Len(t, readTree(t, conn), 1)
}

func TestTreeHub_KeepsNewest(t *testing.T) {
	h := newTreeHub()
	ch, cancel := h.subscribe()
	h.broadcast(model.Tree{{ID: "old"}})
	h.broadcast(model.Tree{{ID: "new"}})
	got := <-ch
	assert.Equal(t, "new", got[0].ID)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, err := NewServer(ServerConfig{Addr: "127.0.0.1:0"}, seededStore(t), nil)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
