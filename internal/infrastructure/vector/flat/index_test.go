package flat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

func chunk(id string, seq int) domain.DocumentChunk {
	return domain.DocumentChunk{Text: "text-" + id, SourceID: id, SequenceIndex: seq}
}

func TestSearchOrdersByAscendingDistance(t *testing.T) {
	ix := New()
	vectors := [][]float32{
		{10, 0},
		{1, 0},
		{4, 0},
	}
	chunks := []domain.DocumentChunk{chunk("far", 0), chunk("near", 0), chunk("mid", 0)}
	if err := ix.Add(vectors, chunks); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := ix.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"near", "mid", "far"}
	for i, w := range want {
		if got[i].Chunk.SourceID != w {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Chunk.SourceID, w)
		}
	}
	if got[0].Distance != 1 || got[1].Distance != 16 || got[2].Distance != 100 {
		t.Fatalf("unexpected distances: %v %v %v", got[0].Distance, got[1].Distance, got[2].Distance)
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	ix := New()
	if err := ix.Add([][]float32{{1}, {2}}, []domain.DocumentChunk{chunk("a", 0), chunk("b", 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := ix.Search([]float32{0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	got, err := New().Search([]float32{1, 2}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no results, got %v", got)
	}
}

func TestAddRejectsMismatchedLengthsAndDimensions(t *testing.T) {
	ix := New()
	if err := ix.Add([][]float32{{1, 2}}, nil); err == nil {
		t.Fatal("expected error for vector/chunk count mismatch")
	}
	if err := ix.Add([][]float32{{1, 2}}, []domain.DocumentChunk{chunk("a", 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Add([][]float32{{1, 2, 3}}, []domain.DocumentChunk{chunk("b", 0)}); err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ix := New()
	vectors := [][]float32{{1, 2}, {3, 4}}
	chunks := []domain.DocumentChunk{chunk("a", 0), chunk("a", 1)}
	if err := ix.Add(vectors, chunks); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := New()
	ok, err := restored.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", restored.Len())
	}

	got, err := restored.Search([]float32{1, 2}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].Chunk != chunks[0] || got[0].Distance != 0 {
		t.Fatalf("round trip lost data: %+v", got[0])
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	ok, err := New().Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot")
	}
}

func TestLoadMismatchedArtifacts(t *testing.T) {
	dir := t.TempDir()

	ix := New()
	if err := ix.Add([][]float32{{1}, {2}}, []domain.DocumentChunk{chunk("a", 0), chunk("a", 1)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Overwrite the chunk artifact with one from a smaller index.
	small := New()
	if err := small.Add([][]float32{{1}}, []domain.DocumentChunk{chunk("a", 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	other := t.TempDir()
	if err := small.Save(other); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(other, chunksFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunksFile), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := New().Load(dir); err == nil {
		t.Fatal("expected error for mismatched snapshot artifacts")
	}
}
