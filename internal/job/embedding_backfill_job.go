package job

import (
	"context"

	"github.com/xxxsen/merlin/internal/service"
)

// EmbeddingBackfillJob embeds and indexes notes that are missing vectors,
// e.g. rows imported outside the ingestion pipeline.
type EmbeddingBackfillJob struct {
	ingest     *service.IngestService
	batchLimit int
}

func NewEmbeddingBackfillJob(ingest *service.IngestService, batchLimit int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{ingest: ingest, batchLimit: batchLimit}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	limit := j.batchLimit
	if limit <= 0 {
		limit = 20
	}
	return j.ingest.BackfillEmbeddings(ctx, limit)
}
