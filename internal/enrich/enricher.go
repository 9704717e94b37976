package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/model"
)

// Reasoner is the slice of ai.Manager the enricher needs; tests substitute
// fakes for it.
type Reasoner interface {
	Classify(ctx context.Context, input string, kind string) (*ai.Classification, error)
	Analyze(ctx context.Context, content string) (*ai.Analysis, error)
}

type Config struct {
	MaxTags   int
	CacheSize int
	CacheTTL  time.Duration
}

// Enricher wraps the reasoning service with a single-retry policy and the
// local heuristic fallback. SummarizeAndTag never fails: callers always get
// a usable result, with Source recording where it came from.
type Enricher struct {
	reasoner Reasoner
	cfg      Config
	cache    *expirable.LRU[string, string]
}

func New(reasoner Reasoner, cfg Config) *Enricher {
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = 8
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 10000
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Enricher{
		reasoner: reasoner,
		cfg:      cfg,
		cache:    expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Classify asks the reasoning service for an intent decision. A failed or
// malformed call returns an error; the Router owns the structural fallback.
func (e *Enricher) Classify(ctx context.Context, input string, kind string) (*ai.Classification, error) {
	if e.reasoner == nil {
		return nil, ai.ErrUnavailable
	}
	res, err := e.reasoner.Classify(ctx, input, kind)
	if err != nil && errors.Is(err, ai.ErrTransient) {
		logutil.GetLogger(ctx).Warn("classification call failed, retrying once", zap.Error(err))
		res, err = e.reasoner.Classify(ctx, input, kind)
	}
	if err != nil {
		return nil, err
	}
	if !model.Intent(res.Intent).Valid() {
		return nil, fmt.Errorf("unknown intent from service: %q", res.Intent)
	}
	return res, nil
}

// SummarizeAndTag produces summary and tags for content. Service failure of
// any kind degrades to the deterministic local heuristic and is never
// surfaced to the caller.
func (e *Enricher) SummarizeAndTag(ctx context.Context, content string) *model.Enrichment {
	cacheKey := e.cacheKey("analyze", content)
	if cached, ok := e.cache.Get(cacheKey); ok {
		var out model.Enrichment
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return &out
		}
	}
	result := e.summarizeAndTag(ctx, content)
	if data, err := json.Marshal(result); err == nil {
		e.cache.Add(cacheKey, string(data))
	}
	return result
}

func (e *Enricher) summarizeAndTag(ctx context.Context, content string) *model.Enrichment {
	logger := logutil.GetLogger(ctx)
	if e.reasoner != nil {
		analysis, err := e.reasoner.Analyze(ctx, content)
		if err != nil && errors.Is(err, ai.ErrTransient) {
			logger.Warn("analysis call failed, retrying once", zap.Error(err))
			analysis, err = e.reasoner.Analyze(ctx, content)
		}
		if err == nil {
			tags := NormalizeTags(analysis.Tags)
			if len(tags) > e.cfg.MaxTags {
				tags = tags[:e.cfg.MaxTags]
			}
			return &model.Enrichment{
				Title:   analysis.Title,
				Summary: analysis.Summary,
				Tags:    tags,
				Source:  model.EnrichmentSourceAI,
			}
		}
		logger.Warn("analysis failed, using local fallback", zap.Error(err))
	}
	return e.Fallback(content)
}

// Fallback is the pure local path; exported so tests and the backfill job
// can exercise it without any network dependency.
func (e *Enricher) Fallback(content string) *model.Enrichment {
	return &model.Enrichment{
		Summary: fallbackSummary(content),
		Tags:    NormalizeTags(fallbackTags(content, e.cfg.MaxTags)),
		Source:  model.EnrichmentSourceFallback,
	}
}

func (e *Enricher) cacheKey(task, content string) string {
	hash := sha256.Sum256([]byte(content))
	return task + ":" + hex.EncodeToString(hash[:])
}
