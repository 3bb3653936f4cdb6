package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/rpcapi"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/rpc"
)

func run(t *testing.T, store string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--store", store}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexAndQueryFiles(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "ws", "corpora.db")
	writeFile(t, filepath.Join(dir, "texts", "a.txt"), "Practice makes perfect.")
	writeFile(t, filepath.Join(dir, "texts", "nested", "b.txt"), "coding makes")
	writeFile(t, filepath.Join(dir, "texts", "skip.md"), "practice coding")

	out, err := run(t, store, "index", "fixture", filepath.Join(dir, "texts", "**", "*.txt"), "--quiet")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out, "5 words, 4 distinct") {
		t.Errorf("unexpected index output %q", out)
	}

	out, err = run(t, store, "query", "fixture", "Practice", "coding")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("expected 3, got %q", out)
	}

	// case is significant
	_, err = run(t, store, "query", "fixture", "practice", "coding")
	if err == nil || !strings.Contains(err.Error(), `"practice"`) {
		t.Errorf("expected missing word error, got %v", err)
	}

	out, err = run(t, store, "query", "fixture", "makes", "makes", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res queryResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if res.Distance != 3 {
		t.Errorf("expected 3 between repeated words, got %d", res.Distance)
	}
}

func TestIndexText(t *testing.T) {
	store := filepath.Join(t.TempDir(), "corpora.db")
	if _, err := run(t, store, "index", "inline", "--text", "a b c a"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, store, "index", "inline", "--text", "x"); err == nil {
		t.Error("expected duplicate corpus to fail")
	}
	if _, err := run(t, store, "index", "empty"); err == nil {
		t.Error("expected error without patterns or text")
	}
	out, err := run(t, store, "query", "inline", "c", "a")
	if err != nil || strings.TrimSpace(out) != "1" {
		t.Errorf("expected 1, got %q (%v)", out, err)
	}
}

func TestIndexExcludes(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "corpora.db")
	writeFile(t, filepath.Join(dir, "docs", "keep.txt"), "one two")
	writeFile(t, filepath.Join(dir, "docs", "draft.txt"), "three four five")

	_, err := run(t, store, "index", "docs", filepath.Join(dir, "docs", "*.txt"),
		"--exclude", filepath.Join(dir, "docs", "draft*"), "-q")
	if err != nil {
		t.Fatal(err)
	}
	out, err := run(t, store, "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var list []corpus.Summary
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].WordCount != 2 {
		t.Errorf("expected only keep.txt indexed, got %+v", list)
	}

	if _, err := run(t, store, "index", "none", filepath.Join(dir, "*.nothing")); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestListAndRemove(t *testing.T) {
	store := filepath.Join(t.TempDir(), "corpora.db")
	out, err := run(t, store, "list")
	if err != nil || !strings.Contains(out, "No corpora") {
		t.Fatalf("expected empty listing, got %q (%v)", out, err)
	}
	run(t, store, "index", "zeta", "--text", "z")
	run(t, store, "index", "alpha", "--text", "a a")

	out, err = run(t, store, "list")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(out, "alpha") > strings.Index(out, "zeta") || !strings.Contains(out, "NAME") {
		t.Errorf("expected sorted table, got %q", out)
	}

	if _, err := run(t, store, "rm", "alpha"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, store, "remove", "alpha"); err == nil {
		t.Error("expected error removing unknown corpus")
	}
	out, _ = run(t, store, "list")
	if strings.Contains(out, "alpha") {
		t.Errorf("alpha should be gone, got %q", out)
	}
}

func TestRemoteQuery(t *testing.T) {
	reg := corpus.NewRegistry(nil, validator.Limits{MaxWords: 100})
	if _, err := reg.Add(context.Background(), "served", []string{"x", "y", "z", "x"}); err != nil {
		t.Fatal(err)
	}
	srv := rpc.NewServer()
	rpcapi.Register(srv, query.NewService(reg), reg, nil)
	ln, err := srv.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go srv.Serve(ln)
	t.Cleanup(srv.Stop)

	store := filepath.Join(t.TempDir(), "unused.db")
	out, err := run(t, store, "query", "served", "z", "x", "--remote", ln.Addr().String())
	if err != nil {
		t.Fatalf("remote query: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("expected 1, got %q", out)
	}
	if _, err := run(t, store, "query", "served", "w", "x", "--remote", ln.Addr().String()); err == nil {
		t.Error("expected missing word error from remote")
	}

	out, err = run(t, store, "list", "--remote", ln.Addr().String())
	if err != nil || !strings.Contains(out, "served") {
		t.Errorf("expected remote listing, got %q (%v)", out, err)
	}
}
