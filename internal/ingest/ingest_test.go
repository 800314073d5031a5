package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListPDFs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "b")
	writeFile(t, filepath.Join(root, "a.PDF"), "a")
	writeFile(t, filepath.Join(root, "notes.txt"), "n")
	writeFile(t, filepath.Join(root, "sub", "c.pdf"), "c")
	writeFile(t, filepath.Join(root, ".hidden", "d.pdf"), "d")

	paths, _, stats, err := ListPDFs(context.Background(), root, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	if filepath.Base(paths[0]) != "a.PDF" {
		t.Errorf("not sorted: %v", paths)
	}
	if stats.Matched != 3 {
		t.Errorf("stats = %+v", stats)
	}

	all, _, _, _ := ListPDFs(context.Background(), root, false)
	if len(all) != 4 {
		t.Errorf("with hidden = %v", all)
	}
}

func TestLoadSourcesHashesContent(t *testing.T) {
	root := t.TempDir()
	a, b := filepath.Join(root, "a.pdf"), filepath.Join(root, "b.pdf")
	writeFile(t, a, "same")
	writeFile(t, b, "same")
	srcs, hashes, err := LoadSources([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if srcs[0].Name != "a.pdf" || string(srcs[1].Data) != "same" {
		t.Errorf("sources = %+v", srcs)
	}
	if hashes[0] != hashes[1] {
		t.Error("identical content hashed differently")
	}
}

func TestWatcherEmitsBatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-batches:
		if len(b) != 1 || filepath.Base(b[0]) != "old.pdf" {
			t.Fatalf("initial batch = %v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial batch")
	}

	writeFile(t, filepath.Join(root, "new.pdf"), "y")
	writeFile(t, filepath.Join(root, "skip.txt"), "z")
	select {
	case b := <-batches:
		if len(b) != 1 || filepath.Base(b[0]) != "new.pdf" {
			t.Fatalf("batch = %v", b)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for new file")
	}
}
