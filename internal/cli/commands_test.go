package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saver-cli/internal/clipboard"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, args, "")
}

func runCLIWithInput(t *testing.T, args []string, stdin string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testEnv isolates config and data per test and returns a runner that
// decodes the JSON envelope.
func testEnv(t *testing.T) (dir string, mustRun func(args ...string) map[string]any) {
	t.Helper()
	t.Setenv("SAVER_CONFIG_DIR", t.TempDir())
	t.Setenv("SAVER_CONFIG", "")
	t.Setenv("SAVER_FORMAT", "")
	dir = t.TempDir()

	mustRun = func(args ...string) map[string]any {
		t.Helper()
		full := append([]string{"--dir", dir, "--bus", "none"}, args...)
		stdout, stderr, err := runCLI(t, full)
		if err != nil {
			t.Fatalf("command failed: saver %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
		}
		var env map[string]any
		if err := json.Unmarshal(stdout, &env); err != nil {
			t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s", err, stdout)
		}
		if _, ok := env["data"]; !ok {
			t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
		}
		return env
	}
	return dir, mustRun
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object; got %#v", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	xs, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("expected data array; got %#v", env["data"])
	}
	return xs
}

func idsOf(xs []any) []string {
	var ids []string
	for _, x := range xs {
		if m, ok := x.(map[string]any); ok {
			id, _ := m["id"].(string)
			ids = append(ids, id)
		}
	}
	return ids
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func useClipboard(t *testing.T, cb clipboard.Writer) {
	t.Helper()
	prev := systemClipboard
	systemClipboard = cb
	t.Cleanup(func() { systemClipboard = prev })
}

func TestFolders_AddIsIdempotentByName(t *testing.T) {
	_, mustRun := testEnv(t)

	first := mustRun("folders", "add", "Work")
	id, _ := dataMap(t, first)["id"].(string)
	if !strings.HasPrefix(id, "fld-") {
		t.Fatalf("expected folder id; got %#v", first)
	}
	if created := first["meta"].(map[string]any)["created"]; created != true {
		t.Fatalf("expected created=true; got %v", created)
	}

	again := mustRun("folders", "add", "Work")
	if got := dataMap(t, again)["id"]; got != id {
		t.Fatalf("expected existing folder %s; got %v", id, got)
	}
	if created := again["meta"].(map[string]any)["created"]; created != false {
		t.Fatalf("expected created=false; got %v", created)
	}

	mustRun("folders", "add", "Home")
	if got := dataList(t, mustRun("folders", "list")); len(got) != 2 {
		t.Fatalf("expected 2 folders; got %d", len(got))
	}
}

func TestFolders_ReorderAndMove(t *testing.T) {
	dir, mustRun := testEnv(t)
	a := dataMap(t, mustRun("folders", "add", "A"))["id"].(string)
	b := dataMap(t, mustRun("folders", "add", "B"))["id"].(string)
	c := dataMap(t, mustRun("folders", "add", "C"))["id"].(string)

	got := idsOf(dataList(t, mustRun("folders", "move", c, "0")))
	if strings.Join(got, ",") != strings.Join([]string{c, a, b}, ",") {
		t.Fatalf("unexpected order after move: %v", got)
	}

	mustRun("folders", "reorder", b, a, c)
	got = idsOf(dataList(t, mustRun("folders", "list")))
	if strings.Join(got, ",") != strings.Join([]string{b, a, c}, ",") {
		t.Fatalf("unexpected order after reorder: %v", got)
	}

	_, _, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "folders", "reorder", a})
	if err == nil || !strings.Contains(err.Error(), "reorder must list every folder exactly once") {
		t.Fatalf("expected incomplete reorder to fail; got %v", err)
	}
}

func TestItems_Lifecycle(t *testing.T) {
	dir, mustRun := testEnv(t)
	fld := dataMap(t, mustRun("folders", "add", "Work"))["id"].(string)
	sec := dataMap(t, mustRun("sections", "add", "--folder", fld, "Logins"))["id"].(string)
	other := dataMap(t, mustRun("sections", "add", "--folder", fld, "Keys"))["id"].(string)
	scope := []string{"--folder", fld, "--section", sec}

	site := dataMap(t, mustRun(append([]string{"items", "add"}, append(scope, "site", "hunter2")...)...))
	if site["sensitive"] != true || site["index"] != float64(0) {
		t.Fatalf("unexpected new item: %#v", site)
	}
	siteID := site["id"].(string)
	mail := dataMap(t, mustRun(append([]string{"items", "add", "--sensitive=false"}, append(scope, "mail", "me@work")...)...))
	mailID := mail["id"].(string)
	if mail["sensitive"] != false || mail["index"] != float64(1) {
		t.Fatalf("unexpected second item: %#v", mail)
	}

	updated := dataMap(t, mustRun(append([]string{"items", "set", siteID, "--value", "correct-horse"}, scope...)...))
	if updated["value"] != "correct-horse" || updated["name"] != "site" || updated["sensitive"] != true {
		t.Fatalf("expected only the value to change: %#v", updated)
	}

	_, _, err := runCLI(t, append([]string{"--dir", dir, "--bus", "none", "items", "reorder", siteID}, scope...))
	if err == nil || !strings.Contains(err.Error(), "reorder must list every item exactly once") {
		t.Fatalf("expected incomplete reorder to fail")
	}
	got := idsOf(dataList(t, mustRun(append([]string{"items", "reorder", mailID, siteID}, scope...)...)))
	if strings.Join(got, ",") != mailID+","+siteID {
		t.Fatalf("unexpected order: %v", got)
	}

	moved := mustRun(append([]string{"items", "move", siteID, "--to-section", other}, scope...)...)
	if meta := moved["meta"].(map[string]any); meta["moved"] != true || meta["section"] != other {
		t.Fatalf("unexpected move meta: %#v", meta)
	}
	if got := dataList(t, mustRun("items", "list", "--folder", fld, "--section", other)); len(got) != 1 {
		t.Fatalf("expected item in destination; got %v", got)
	}
	if got := idsOf(dataList(t, mustRun(append([]string{"items", "list"}, scope...)...))); strings.Join(got, ",") != mailID {
		t.Fatalf("expected item gone from source; got %v", got)
	}

	mustRun("items", "delete", "--folder", fld, "--section", other, siteID)
	if got := dataList(t, mustRun("items", "list", "--folder", fld, "--section", other)); len(got) != 0 {
		t.Fatalf("expected empty section; got %v", got)
	}
}

func TestItems_MissingSectionReportsNotFound(t *testing.T) {
	dir, mustRun := testEnv(t)
	fld := dataMap(t, mustRun("folders", "add", "Work"))["id"].(string)

	_, stderr, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "items", "add", "--folder", fld, "--section", "sec-404", "n", "v"})
	if err == nil || !strings.Contains(string(stderr), "section not found: sec-404") {
		t.Fatalf("expected not found; err=%v stderr=%s", err, stderr)
	}
}

func TestSearch(t *testing.T) {
	_, mustRun := testEnv(t)
	fld := dataMap(t, mustRun("folders", "add", "Work"))["id"].(string)
	sec := dataMap(t, mustRun("sections", "add", "--folder", fld, "Wifi"))["id"].(string)
	mustRun("items", "add", "--folder", fld, "--section", sec, "office", "pw1")
	mustRun("items", "add", "--folder", fld, "--section", sec, "guest", "pw2")

	res := dataMap(t, mustRun("search", "WIFI"))
	if res["searched"] != true || len(res["matches"].([]any)) != 2 {
		t.Fatalf("expected section match to surface both items: %#v", res)
	}

	empty := dataMap(t, mustRun("search"))
	if empty["searched"] != false || len(empty["matches"].([]any)) != 0 {
		t.Fatalf("expected no query: %#v", empty)
	}
}

func TestImport_ValidatesAndReplaces(t *testing.T) {
	dir, mustRun := testEnv(t)
	mustRun("folders", "add", "Old")

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"id":"fld-1","name":"A","sections":[{"id":"sec-1","name":"S","items":[{"id":"","name":"n","value":"v"}]}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "import", bad})
	if err == nil || !strings.Contains(string(stderr), `item at index 0 in section "S" has invalid structure`) {
		t.Fatalf("expected validation error; err=%v stderr=%s", err, stderr)
	}
	if got := dataList(t, mustRun("folders", "list")); len(got) != 1 || got[0].(map[string]any)["name"] != "Old" {
		t.Fatalf("expected rejected import to leave the tree alone; got %v", got)
	}

	payload := `[{"id":"fld-x","name":"Imported","sections":[{"id":"sec-x","name":"S","items":[{"id":"itm-x","name":"n","value":"v"}]}]}]`
	stdout, stderr, err := runCLIWithInput(t, []string{"--dir", dir, "--bus", "none", "import", "-"}, payload)
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatal(err)
	}
	if data := dataMap(t, env); data["folders"] != float64(1) || data["items"] != float64(1) {
		t.Fatalf("unexpected import summary: %#v", data)
	}

	item := dataMap(t, mustRun("items", "show", "--folder", "fld-x", "--section", "sec-x", "itm-x"))
	if item["sensitive"] != true || item["index"] != float64(0) {
		t.Fatalf("expected legacy defaults: %#v", item)
	}
}

func TestExport_ClipboardAndFallback(t *testing.T) {
	dir, mustRun := testEnv(t)
	mustRun("folders", "add", "Work")

	cb := &fakeClipboard{}
	useClipboard(t, cb)
	data := dataMap(t, mustRun("export"))
	if data["copied"] != true || data["folders"] != float64(1) {
		t.Fatalf("unexpected export summary: %#v", data)
	}
	if !strings.HasPrefix(cb.text, "[\n  {") {
		t.Fatalf("expected indented JSON on the clipboard; got %q", cb.text)
	}

	useClipboard(t, &fakeClipboard{err: errors.New("no clipboard")})
	stdout, stderr, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "export"})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if string(stdout) != cb.text {
		t.Fatalf("expected the export printed instead:\n%s", stdout)
	}
	if !strings.Contains(string(stderr), "clipboard unavailable") {
		t.Fatalf("expected a warning on stderr; got %q", stderr)
	}
}

func TestTextFormat_MasksUnlessRevealed(t *testing.T) {
	dir, mustRun := testEnv(t)
	fld := dataMap(t, mustRun("folders", "add", "Work"))["id"].(string)
	sec := dataMap(t, mustRun("sections", "add", "--folder", fld, "Logins"))["id"].(string)
	mustRun("items", "add", "--folder", fld, "--section", sec, "site", "hunter2")

	args := []string{"--dir", dir, "--bus", "none", "--format", "text", "folders", "show", fld}
	stdout, _, err := runCLI(t, args)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(stdout), "hunter2") || !strings.Contains(string(stdout), "site = ••••••••") {
		t.Fatalf("expected masked value:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, append([]string{"--reveal"}, args...))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stdout), "site = hunter2") {
		t.Fatalf("expected revealed value:\n%s", stdout)
	}
}

func TestSQLiteBackend(t *testing.T) {
	_, mustRun := testEnv(t)
	mustRun("--backend", "sqlite", "folders", "add", "Work")
	if got := dataList(t, mustRun("--backend", "sqlite", "folders", "list")); len(got) != 1 {
		t.Fatalf("expected folder persisted in sqlite; got %v", got)
	}
	if got := dataList(t, mustRun("folders", "list")); len(got) != 0 {
		t.Fatalf("expected file backend to be separate; got %v", got)
	}
}

func TestConfig_SetAndShow(t *testing.T) {
	_, mustRun := testEnv(t)

	set := dataMap(t, mustRun("config", "set", "backend", "sqlite"))
	if set["key"] != "backend" {
		t.Fatalf("unexpected set output: %#v", set)
	}
	mustRun("config", "set", "token", "s3cret")

	show := mustRun("config", "show")
	cfg := dataMap(t, show)
	if cfg["backend"] != "sqlite" {
		t.Fatalf("expected backend from config file; got %#v", cfg)
	}
	if _, ok := cfg["token"]; ok {
		t.Fatalf("token must not be printed: %#v", cfg)
	}
	if file, _ := show["meta"].(map[string]any)["file"].(string); !strings.HasSuffix(file, "config.json") {
		t.Fatalf("unexpected config file: %q", file)
	}

	t.Setenv("SAVER_BACKEND", "redis")
	if got := dataMap(t, mustRun("config", "show"))["backend"]; got != "redis" {
		t.Fatalf("expected env to win over the file; got %v", got)
	}
	if got := dataMap(t, mustRun("--backend", "file", "config", "show"))["backend"]; got != "file" {
		t.Fatalf("expected flag to win over env; got %v", got)
	}

	if _, _, err := runCLI(t, []string{"config", "set", "nope", "x"}); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestDocs(t *testing.T) {
	_, mustRun := testEnv(t)

	topics := dataMap(t, mustRun("docs"))["topics"].([]any)
	found := false
	for _, tp := range topics {
		if tp == "tui" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tui topic; got %v", topics)
	}

	stdout, _, err := runCLI(t, []string{"docs", "tui", "--raw"})
	if err != nil || !strings.HasPrefix(string(stdout), "# Terminal UI") {
		t.Fatalf("unexpected raw docs: err=%v\n%s", err, stdout)
	}

	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}

func TestDoctor_FixMigratesLegacyPayload(t *testing.T) {
	dir, mustRun := testEnv(t)
	legacy := `[{"id":"fld-1","name":"Work","sections":[{"id":"sec-1","name":"Logins","items":[{"id":"itm-1","name":"site","value":"x"}]}]}]`
	if err := os.WriteFile(filepath.Join(dir, "saver-folders.json"), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	before := mustRun("doctor", "--fail")
	if meta := before["meta"].(map[string]any); meta["issues"] != float64(1) || meta["hasErrors"] != false {
		t.Fatalf("expected one warning; got %#v", before)
	}
	issue := dataMap(t, before)["issues"].([]any)[0].(map[string]any)
	if issue["code"] != "needs_migration" {
		t.Fatalf("unexpected issue: %#v", issue)
	}

	fixed := mustRun("doctor", "--fix")
	if meta := fixed["meta"].(map[string]any); meta["fixed"] != true || meta["issues"] != float64(0) {
		t.Fatalf("expected a clean report after --fix; got %#v", fixed)
	}
	b, err := os.ReadFile(filepath.Join(dir, "saver-folders.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"sensitive":true`) || !strings.Contains(string(b), `"index":0`) {
		t.Fatalf("expected migrated payload on disk: %s", b)
	}
}

func TestDoctor_FailOnErrors(t *testing.T) {
	dir, _ := testEnv(t)
	dup := `[{"id":"fld-1","name":"A","index":0,"sections":[]},{"id":"fld-1","name":"B","index":1,"sections":[]}]`
	if err := os.WriteFile(filepath.Join(dir, "saver-folders.json"), []byte(dup), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "doctor", "--fail"})
	if err == nil {
		t.Fatalf("expected --fail to return an error")
	}
	if !strings.Contains(string(stdout), `"duplicate_id"`) {
		t.Fatalf("expected the report on stdout anyway:\n%s", stdout)
	}
}

func TestPublish(t *testing.T) {
	dir, mustRun := testEnv(t)
	fld := dataMap(t, mustRun("folders", "add", "Work"))["id"].(string)
	sec := dataMap(t, mustRun("sections", "add", "--folder", fld, "Logins"))["id"].(string)
	mustRun("items", "add", "--folder", fld, "--section", sec, "site", "hunter2")

	stdout, _, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "publish"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stdout), "| site | •••••••• |") || strings.Contains(string(stdout), "hunter2") {
		t.Fatalf("expected a masked sheet:\n%s", stdout)
	}

	out := filepath.Join(dir, "sheet.md")
	res := dataMap(t, mustRun("--reveal", "publish", "--out", out))
	if res["masked"] != false {
		t.Fatalf("unexpected result: %#v", res)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "| site | hunter2 |") {
		t.Fatalf("expected revealed sheet:\n%s", b)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "--bus", "none", "publish", "--out", out}); err == nil {
		t.Fatalf("expected overwrite guard")
	}
}
