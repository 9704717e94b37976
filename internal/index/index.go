package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/merlin/internal/model"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

// Index ranks stored note embeddings by cosine similarity. It is a
// read-mostly in-memory structure: loaded once at startup, appended on
// ingest, safe for concurrent readers.
type Index struct {
	mu      sync.RWMutex
	entries map[int64]entry
}

type entry struct {
	vector    []float32
	createdAt int64
}

func New() *Index {
	return &Index{entries: make(map[int64]entry)}
}

func (idx *Index) Load(items []model.NoteEmbedding) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, item := range items {
		idx.entries[item.NoteID] = entry{vector: cloneVector(item.Embedding), createdAt: item.CreatedAt}
	}
}

func (idx *Index) Add(noteID int64, vector []float32, createdAt int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[noteID] = entry{vector: cloneVector(vector), createdAt: createdAt}
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search returns the top-k most similar entries. Scores are cosine
// similarity mapped to [0,1] via (cos+1)/2 so they are comparable across
// calls. k larger than the corpus clamps; k <= 0 is an error. Ordering is
// stable: score desc, then created_at desc, then id asc.
func (idx *Index) Search(vector []float32, k int) ([]model.SimilarityMatch, error) {
	return idx.search(vector, k, 0)
}

// Neighbors ranks entries against the stored vector of noteID, excluding
// noteID itself from the result.
func (idx *Index) Neighbors(noteID int64, k int) ([]model.SimilarityMatch, error) {
	idx.mu.RLock()
	source, ok := idx.entries[noteID]
	idx.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: note %d has no embedding", appErr.ErrNotFound, noteID)
	}
	return idx.search(source.vector, k, noteID)
}

func (idx *Index) search(vector []float32, k int, excludeID int64) ([]model.SimilarityMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", appErr.ErrInvalid, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", appErr.ErrInvalid)
	}

	type scored struct {
		id        int64
		score     float64
		createdAt int64
	}

	idx.mu.RLock()
	candidates := make([]scored, 0, len(idx.entries))
	for id, e := range idx.entries {
		if excludeID != 0 && id == excludeID {
			continue
		}
		cos := cosineSimilarity(vector, e.vector)
		candidates = append(candidates, scored{
			id:        id,
			score:     (cos + 1) / 2,
			createdAt: e.createdAt,
		})
	}
	idx.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].createdAt != candidates[j].createdAt {
			return candidates[i].createdAt > candidates[j].createdAt
		}
		return candidates[i].id < candidates[j].id
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]model.SimilarityMatch, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, model.SimilarityMatch{NoteID: candidates[i].id, Score: candidates[i].score})
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
