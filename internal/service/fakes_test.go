package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/config"
	"github.com/xxxsen/merlin/internal/model"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	notes  map[int64]*model.Note
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, notes: make(map[int64]*model.Note)}
}

func (s *fakeStore) Create(ctx context.Context, note *model.Note) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note.ID = s.nextID
	s.nextID++
	if note.CreatedAt == 0 {
		note.CreatedAt = 1000 + note.ID
	}
	clone := *note
	s.notes[note.ID] = &clone
	return note.ID, nil
}

func (s *fakeStore) Get(ctx context.Context, id int64) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("%w: note %d", appErr.ErrNotFound, id)
	}
	clone := *note
	return &clone, nil
}

func (s *fakeStore) Recent(ctx context.Context, limit int) ([]*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Note, 0, len(s.notes))
	for id := s.nextID - 1; id >= 1 && len(out) < limit; id-- {
		if note, ok := s.notes[id]; ok {
			clone := *note
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeStore) ListEmbeddings(ctx context.Context) ([]model.NoteEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.NoteEmbedding
	for _, note := range s.notes {
		if len(note.Embedding) > 0 {
			out = append(out, model.NoteEmbedding{NoteID: note.ID, Embedding: note.Embedding, CreatedAt: note.CreatedAt})
		}
	}
	return out, nil
}

func (s *fakeStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Note
	for id := int64(1); id < s.nextID && len(out) < limit; id++ {
		if note, ok := s.notes[id]; ok && len(note.Embedding) == 0 {
			clone := *note
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok {
		return fmt.Errorf("%w: note %d", appErr.ErrNotFound, id)
	}
	note.Embedding = embedding
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

type fakeFetcher struct {
	title string
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, link string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return f.title, f.text, nil
}

type fakeEnricher struct {
	result *model.Enrichment
}

func (f *fakeEnricher) SummarizeAndTag(ctx context.Context, content string) *model.Enrichment {
	if f.result != nil {
		clone := *f.result
		return &clone
	}
	return &model.Enrichment{
		Summary: "fallback summary",
		Tags:    []string{"tag"},
		Source:  model.EnrichmentSourceFallback,
	}
}

// letterEmbedder maps text to a 26-dim letter frequency vector, so texts
// sharing vocabulary score high on cosine similarity. Deterministic and
// offline, good enough to exercise the ranking path end to end.
type letterEmbedder struct {
	err   error
	dim   int
	calls []string
}

func (e *letterEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls = append(e.calls, taskType)
	if e.err != nil {
		return nil, e.err
	}
	dim := e.dim
	if dim <= 0 {
		dim = 26
	}
	vec := make([]float32, dim)
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) && r >= 'a' && r <= 'z' {
			vec[int(r-'a')%dim]++
		}
	}
	return vec, nil
}

func (e *letterEmbedder) ModelName() string { return "letter-freq-test" }

var _ ai.IEmbedder = (*letterEmbedder)(nil)

type fakeClassifier struct {
	result *ai.Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, input string, kind string) (*ai.Classification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		EmbeddingDim:   26,
		MaxEmbedChars:  6000,
		MaxEnrichChars: 6000,
		SearchTopK:     5,
		SimilarTopK:    3,
		MaxTags:        8,
	}
}
