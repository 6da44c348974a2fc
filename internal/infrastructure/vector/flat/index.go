package flat

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mkotelnikov/org-assistant/internal/core/domain"
)

const (
	vectorsFile = "vectors.gob"
	chunksFile  = "chunks.gob"
)

// Index is an exhaustive squared-L2 nearest-neighbor store. Vectors and chunk
// metadata live in two parallel slices; position i in one corresponds to
// position i in the other. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []domain.DocumentChunk
}

func New() *Index {
	return &Index{}
}

type vectorSnapshot struct {
	Dim     int
	Vectors [][]float32
}

// Add appends vectors with their chunk metadata. The first batch fixes the
// index dimensionality.
func (ix *Index) Add(vectors [][]float32, chunks []domain.DocumentChunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("flat index: %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dim == 0 {
		ix.dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("flat index: vector %d has dimension %d, want %d", i, len(v), ix.dim)
		}
	}
	ix.vectors = append(ix.vectors, vectors...)
	ix.chunks = append(ix.chunks, chunks...)
	return nil
}

// Search returns up to k snippets ordered by ascending squared L2 distance.
// Ties break on insertion order.
func (ix *Index) Search(query []float32, k int) ([]domain.RetrievedSnippet, error) {
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("flat index: query dimension %d, want %d", len(query), ix.dim)
	}

	type scored struct {
		pos  int
		dist float32
	}
	all := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		var d float32
		for j := range v {
			diff := v[j] - query[j]
			d += diff * diff
		}
		all[i] = scored{pos: i, dist: d}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	if k > len(all) {
		k = len(all)
	}
	out := make([]domain.RetrievedSnippet, k)
	for i := 0; i < k; i++ {
		out[i] = domain.RetrievedSnippet{
			Chunk:    ix.chunks[all[i].pos],
			Distance: float64(all[i].dist),
		}
	}
	return out, nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Save writes the two snapshot artifacts into dir, creating it if needed.
func (ix *Index) Save(dir string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("flat index: create snapshot dir: %w", err)
	}
	if err := writeGob(filepath.Join(dir, vectorsFile), vectorSnapshot{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		return err
	}
	return writeGob(filepath.Join(dir, chunksFile), ix.chunks)
}

// Load restores the index from a snapshot. Reports (false, nil) when either
// artifact is absent and an error when the artifacts disagree, so callers can
// fall back to a full rebuild.
func (ix *Index) Load(dir string) (bool, error) {
	var vs vectorSnapshot
	ok, err := readGob(filepath.Join(dir, vectorsFile), &vs)
	if err != nil || !ok {
		return false, err
	}
	var chunks []domain.DocumentChunk
	ok, err = readGob(filepath.Join(dir, chunksFile), &chunks)
	if err != nil || !ok {
		return false, err
	}
	if len(vs.Vectors) != len(chunks) {
		return false, fmt.Errorf("flat index: snapshot mismatch, %d vectors for %d chunks", len(vs.Vectors), len(chunks))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = vs.Dim
	ix.vectors = vs.Vectors
	ix.chunks = chunks
	return true, nil
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("flat index: write %s: %w", filepath.Base(path), err)
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("flat index: encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readGob(path string, v any) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("flat index: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return false, fmt.Errorf("flat index: decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
