package store

import (
	"bytes"
	"testing"
)

func TestDecodeTree_FillsLegacyDefaults(t *testing.T) {
	legacy := []byte(`[
		{"id":"f1","name":"Work","sections":[
			{"id":"s1","name":"Logins","items":[
				{"id":"i1","name":"site","value":"x"},
				{"id":"i2","name":"mail","value":"y","sensitive":false,"index":4}
			]}
		]},
		{"id":"f2","name":"Home","sections":[],"index":9},
		{"id":"f3","name":"Old"}
	]`)
	tree, err := DecodeTree(legacy)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("expected 3 folders; got %d", len(tree))
	}
	if tree[0].Index != 0 || tree[1].Index != 9 || tree[2].Index != 2 {
		t.Fatalf("unexpected folder indices: %d %d %d", tree[0].Index, tree[1].Index, tree[2].Index)
	}
	items := tree[0].Sections[0].Items
	if !items[0].Sensitive || items[0].Index != 0 {
		t.Fatalf("expected missing sensitive to default true: %#v", items[0])
	}
	if items[1].Sensitive || items[1].Index != 4 {
		t.Fatalf("expected explicit fields kept: %#v", items[1])
	}
	if tree[2].Sections == nil {
		t.Fatalf("expected missing sections to decode as empty slice")
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	in := []byte(`[{"id":"f1","name":"A","sections":[{"id":"s1","name":"S","items":[{"id":"i1","name":"n","value":"v"}]}]},{"id":"f2","name":"B","sections":null}]`)
	once, err := Migrate(in)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	twice, err := Migrate(once)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("migration not idempotent:\n%s\n%s", once, twice)
	}
	if bytes.Contains(once, []byte("null")) {
		t.Fatalf("expected no null slices in %s", once)
	}
}

func TestDecodeTree_EmptyAndInvalid(t *testing.T) {
	for _, in := range []string{"", "null", "  "} {
		tree, err := DecodeTree([]byte(in))
		if err != nil || tree == nil || len(tree) != 0 {
			t.Fatalf("input %q: expected empty tree; got %#v, %v", in, tree, err)
		}
	}
	if _, err := DecodeTree([]byte(`{"not":"an array"}`)); err == nil {
		t.Fatalf("expected error for object root")
	}
}
