package kv

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/artpar/modgate/adapters/sqlite"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()

	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m, err := New(db)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return m
}

func TestSetGet(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	resp, err := m.Execute(ctx, "set", map[string]any{"key": "greeting", "value": "hello"})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if resp.Code != http.StatusNoContent {
		t.Errorf("set code = %d, want 204", resp.Code)
	}

	resp, err = m.Execute(ctx, "get", map[string]any{"key": "greeting"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("get code = %d, want 200", resp.Code)
	}

	var entry Entry
	if err := json.Unmarshal(resp.Data, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Key != "greeting" || entry.Value != "hello" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestSetOverwrites(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	m.Execute(ctx, "set", map[string]any{"key": "k", "value": "v1"})
	m.Execute(ctx, "set", map[string]any{"key": "k", "value": "v2"})

	resp, err := m.Execute(ctx, "get", map[string]any{"key": "k"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var entry Entry
	json.Unmarshal(resp.Data, &entry)
	if entry.Value != "v2" {
		t.Errorf("value = %q, want v2", entry.Value)
	}
}

func TestGetMissing(t *testing.T) {
	m := newTestModule(t)

	resp, err := m.Execute(context.Background(), "get", map[string]any{"key": "nope"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", resp.Code)
	}
}

func TestDelete(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	m.Execute(ctx, "set", map[string]any{"key": "k", "value": "v"})

	resp, err := m.Execute(ctx, "del", map[string]any{"key": "k"})
	if err != nil {
		t.Fatalf("del: %v", err)
	}
	if resp.Code != http.StatusNoContent {
		t.Errorf("del code = %d, want 204", resp.Code)
	}

	resp, _ = m.Execute(ctx, "del", map[string]any{"key": "k"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("second del code = %d, want 404", resp.Code)
	}
}

func TestList(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	for _, kv := range [][2]string{{"app.name", "modgate"}, {"app.port", "8080"}, {"other", "x"}} {
		if _, err := m.Execute(ctx, "set", map[string]any{"key": kv[0], "value": kv[1]}); err != nil {
			t.Fatalf("set %s: %v", kv[0], err)
		}
	}

	resp, err := m.Execute(ctx, "list", map[string]any{"prefix": "app."})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Key != "app.name" || entries[1].Key != "app.port" {
		t.Errorf("keys = %s, %s; want sorted app.* keys", entries[0].Key, entries[1].Key)
	}

	resp, _ = m.Execute(ctx, "list", map[string]any{})
	json.Unmarshal(resp.Data, &entries)
	if len(entries) != 3 {
		t.Errorf("unfiltered entries = %d, want 3", len(entries))
	}
}

func TestListTreatsPrefixLiterally(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	for _, key := range []string{"a%b", "aXb", "a_c", "abc"} {
		if _, err := m.Execute(ctx, "set", map[string]any{"key": key, "value": "v"}); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"a%", []string{"a%b"}},
		{"a_", []string{"a_c"}},
		{"a", []string{"a%b", "aXb", "a_c", "abc"}},
	}
	for _, tt := range tests {
		resp, err := m.Execute(ctx, "list", map[string]any{"prefix": tt.prefix})
		if err != nil {
			t.Fatalf("list %q: %v", tt.prefix, err)
		}
		var entries []Entry
		if err := json.Unmarshal(resp.Data, &entries); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		var keys []string
		for _, e := range entries {
			keys = append(keys, e.Key)
		}
		if len(keys) != len(tt.want) {
			t.Errorf("prefix %q matched %v, want %v", tt.prefix, keys, tt.want)
			continue
		}
		for i := range tt.want {
			if keys[i] != tt.want[i] {
				t.Errorf("prefix %q matched %v, want %v", tt.prefix, keys, tt.want)
				break
			}
		}
	}
}

func TestSetRequiresKey(t *testing.T) {
	m := newTestModule(t)

	_, err := m.Execute(context.Background(), "set", map[string]any{"value": "v"})
	if err == nil {
		t.Fatal("expected error for empty key")
	}
}
