package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/config"
	"github.com/xxxsen/merlin/internal/fetch"
	"github.com/xxxsen/merlin/internal/index"
	"github.com/xxxsen/merlin/internal/model"
	"github.com/xxxsen/merlin/internal/normalize"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

// ContentEnricher is the slice of the enrichment client the pipeline needs.
// SummarizeAndTag must not fail; degraded results carry a fallback source.
type ContentEnricher interface {
	SummarizeAndTag(ctx context.Context, content string) *model.Enrichment
}

// IngestService runs the ingestion pipeline: normalize, fetch, enrich,
// embed, persist, then look up neighbors. Either a fully enriched and
// embedded note is persisted and returned with its neighbors, or a specific
// error is returned and nothing is stored.
type IngestService struct {
	store    NoteStore
	fetcher  fetch.Fetcher
	enricher ContentEnricher
	embedder ai.IEmbedder
	idx      *index.Index
	cfg      config.PipelineConfig
}

func NewIngestService(store NoteStore, fetcher fetch.Fetcher, enricher ContentEnricher, embedder ai.IEmbedder, idx *index.Index, cfg config.PipelineConfig) *IngestService {
	return &IngestService{
		store:    store,
		fetcher:  fetcher,
		enricher: enricher,
		embedder: embedder,
		idx:      idx,
		cfg:      cfg,
	}
}

func (s *IngestService) Ingest(ctx context.Context, rawInput string, title string) (*model.Note, []model.SimilarityMatch, error) {
	logger := logutil.GetLogger(ctx)
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return nil, nil, fmt.Errorf("%w: nothing to ingest", appErr.ErrEmptyContent)
	}

	content := trimmed
	fetchedTitle := ""
	if normalize.IsURL(trimmed) {
		var err error
		fetchedTitle, content, err = s.fetcher.Fetch(ctx, trimmed)
		if err != nil {
			// No note is created from a failed fetch; empty content is
			// never silently substituted.
			return nil, nil, err
		}
		logger.Info("url content fetched", zap.String("url", trimmed), zap.Int("chars", len(content)))
	}

	plain := normalize.StripMarkdown(content)
	if strings.TrimSpace(plain) == "" {
		return nil, nil, fmt.Errorf("%w: input resolves to no text", appErr.ErrEmptyContent)
	}

	enrichInput := normalize.Truncate(plain, s.cfg.MaxEnrichChars)
	enrichment := s.enricher.SummarizeAndTag(ctx, enrichInput)

	embedding, err := s.embed(ctx, plain, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, nil, err
	}

	note := &model.Note{
		Title:     resolveTitle(title, enrichment, fetchedTitle, plain),
		Content:   content,
		Summary:   enrichment.Summary,
		Tags:      enrichment.Tags,
		Embedding: embedding,
		Source:    enrichment.Source,
	}
	if _, err := s.store.Create(ctx, note); err != nil {
		return nil, nil, fmt.Errorf("persist note: %w", err)
	}
	s.idx.Add(note.ID, embedding, note.CreatedAt)
	logger.Info("note ingested",
		zap.Int64("note_id", note.ID),
		zap.String("source", note.Source),
		zap.Int("tags", len(note.Tags)),
	)

	matches, err := s.idx.Neighbors(note.ID, s.cfg.SimilarTopK)
	if err != nil {
		// The note is durable at this point; a neighbor lookup problem
		// should not fail the ingestion.
		logger.Warn("neighbor lookup failed", zap.Int64("note_id", note.ID), zap.Error(err))
		matches = nil
	}
	return note, matches, nil
}

// embed truncates deterministically, calls the encoder and enforces the
// configured dimension. Any failure here is fatal to the request: search
// correctness depends on valid vectors.
func (s *IngestService) embed(ctx context.Context, plain string, taskType string) ([]float32, error) {
	truncated := normalize.Truncate(plain, s.cfg.MaxEmbedChars)
	embedding, err := s.embedder.Embed(ctx, truncated, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}
	if len(embedding) != s.cfg.EmbeddingDim {
		return nil, fmt.Errorf("%w: encoder returned %d dimensions, want %d", appErr.ErrEmbedding, len(embedding), s.cfg.EmbeddingDim)
	}
	return embedding, nil
}

// BackfillEmbeddings embeds and indexes notes whose vector is missing.
func (s *IngestService) BackfillEmbeddings(ctx context.Context, limit int) error {
	notes, err := s.store.ListMissingEmbeddings(ctx, limit)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, note := range notes {
		plain := normalize.StripMarkdown(note.Content)
		embedding, err := s.embed(ctx, plain, "RETRIEVAL_DOCUMENT")
		if err != nil {
			logger.Warn("backfill embed failed", zap.Int64("note_id", note.ID), zap.Error(err))
			continue
		}
		if err := s.store.UpdateEmbedding(ctx, note.ID, embedding); err != nil {
			logger.Warn("backfill save failed", zap.Int64("note_id", note.ID), zap.Error(err))
			continue
		}
		s.idx.Add(note.ID, embedding, note.CreatedAt)
		logger.Info("embedding backfilled", zap.Int64("note_id", note.ID))
	}
	return nil
}

func resolveTitle(requested string, enrichment *model.Enrichment, fetched string, plain string) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	if enrichment.Source == model.EnrichmentSourceAI {
		if t := strings.TrimSpace(enrichment.Title); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(fetched); t != "" {
		return t
	}
	line := plain
	if idx := strings.IndexByte(line, '\n'); idx > 0 {
		line = line[:idx]
	}
	runes := []rune(strings.TrimSpace(line))
	if len(runes) > 80 {
		runes = runes[:80]
	}
	return string(runes)
}
