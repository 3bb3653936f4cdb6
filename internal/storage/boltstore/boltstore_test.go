package boltstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "corpora.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	words := []string{"a", "b", "a", "b", "a"}
	snap := corpus.Snapshot{
		Name:        "alt",
		Words:       words,
		ContentHash: corpus.ContentHash(words),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := st.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, corpus.Snapshot{Name: "aaa", Words: []string{"x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	snaps, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Name != "aaa" || snaps[1].Name != "alt" {
		t.Errorf("expected name order, got %s, %s", snaps[0].Name, snaps[1].Name)
	}
	if len(snaps[1].Words) != 5 || !snaps[1].CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("snapshot changed across reopen: %+v", snaps[1])
	}

	if err := st.Delete(ctx, "aaa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snaps, _ = st.LoadAll(ctx)
	if len(snaps) != 1 {
		t.Errorf("expected 1 snapshot after delete, got %d", len(snaps))
	}
}
