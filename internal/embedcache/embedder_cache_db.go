package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/repo"
)

// WrapDBCacheToEmbedder adds a persistent pgvector-backed cache behind the
// LRU layer so embeddings survive restarts. Cache write failures are logged
// and ignored; the vector is still returned.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cache *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cache == nil {
		return e
	}
	return &dbEmbedder{next: e, cache: cache}
}

type dbEmbedder struct {
	next  ai.IEmbedder
	cache *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("task_type", taskType))
	cacheKey := buildCacheKey(d.next.ModelName(), taskType, text)
	cached, ok, err := d.cache.Get(ctx, d.next.ModelName(), taskType, cacheKey)
	if err != nil {
		logger.Warn("embedding cache read failed", zap.Error(err))
	} else if ok {
		logger.Debug("embedding cache hit (db)")
		return cached, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Save(ctx, d.next.ModelName(), taskType, cacheKey, res, time.Now().Unix()); err != nil {
		logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}
