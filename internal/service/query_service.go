package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/config"
	"github.com/xxxsen/merlin/internal/index"
	"github.com/xxxsen/merlin/internal/model"
	"github.com/xxxsen/merlin/internal/normalize"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

// SearchResult pairs a hydrated note with its similarity score.
type SearchResult struct {
	Note  *model.Note `json:"note"`
	Score float64     `json:"score"`
}

// SummarizeResult is an on-the-fly summary of caller-provided content plus
// related notes already in the corpus.
type SummarizeResult struct {
	Enrichment *model.Enrichment `json:"enrichment"`
	Related    []SearchResult    `json:"related"`
}

type QueryService struct {
	store    NoteStore
	enricher ContentEnricher
	embedder ai.IEmbedder
	idx      *index.Index
	cfg      config.PipelineConfig
}

func NewQueryService(store NoteStore, enricher ContentEnricher, embedder ai.IEmbedder, idx *index.Index, cfg config.PipelineConfig) *QueryService {
	return &QueryService{
		store:    store,
		enricher: enricher,
		embedder: embedder,
		idx:      idx,
		cfg:      cfg,
	}
}

// Search embeds the query text and ranks the corpus against it.
func (s *QueryService) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}
	if k <= 0 {
		k = s.cfg.SearchTopK
	}
	vec, err := s.embedder.Embed(ctx, normalize.Truncate(trimmed, s.cfg.MaxEmbedChars), "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}
	if s.idx.Size() == 0 {
		return []SearchResult{}, nil
	}
	matches, err := s.idx.Search(vec, k)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, matches), nil
}

// Similar returns the nearest neighbors of an existing note.
func (s *QueryService) Similar(ctx context.Context, noteID int64, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = s.cfg.SimilarTopK
	}
	matches, err := s.idx.Neighbors(noteID, k)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, matches), nil
}

func (s *QueryService) Get(ctx context.Context, noteID int64) (*model.Note, error) {
	return s.store.Get(ctx, noteID)
}

func (s *QueryService) Recent(ctx context.Context, limit int) ([]*model.Note, error) {
	return s.store.Recent(ctx, limit)
}

// Summarize runs summarize-and-tag over caller-provided content without
// persisting anything, and surfaces related notes from the corpus.
func (s *QueryService) Summarize(ctx context.Context, content string) (*SummarizeResult, error) {
	plain := normalize.StripMarkdown(content)
	if strings.TrimSpace(plain) == "" {
		return nil, fmt.Errorf("%w: nothing to summarize", appErr.ErrEmptyContent)
	}
	enrichment := s.enricher.SummarizeAndTag(ctx, normalize.Truncate(plain, s.cfg.MaxEnrichChars))
	result := &SummarizeResult{Enrichment: enrichment}

	if s.idx.Size() > 0 {
		vec, err := s.embedder.Embed(ctx, normalize.Truncate(plain, s.cfg.MaxEmbedChars), "RETRIEVAL_QUERY")
		if err != nil {
			// Related notes are best effort here; the summary stands alone.
			logutil.GetLogger(ctx).Warn("related lookup skipped", zap.Error(err))
			return result, nil
		}
		matches, err := s.idx.Search(vec, s.cfg.SimilarTopK)
		if err == nil {
			result.Related = s.hydrate(ctx, matches)
		}
	}
	return result, nil
}

func (s *QueryService) hydrate(ctx context.Context, matches []model.SimilarityMatch) []SearchResult {
	out := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		note, err := s.store.Get(ctx, match.NoteID)
		if err != nil {
			logutil.GetLogger(ctx).Warn("skip unfetchable note", zap.Int64("note_id", match.NoteID), zap.Error(err))
			continue
		}
		out = append(out, SearchResult{Note: note, Score: match.Score})
	}
	return out
}
