package ai

import (
	"context"
	"time"
)

// NewTimeoutEmbedder bounds every embedding call with a deadline so a
// stalled backend cannot block ingestion or search. A non-positive timeout
// returns the embedder unchanged.
func NewTimeoutEmbedder(next IEmbedder, timeout time.Duration) IEmbedder {
	if next == nil || timeout <= 0 {
		return next
	}
	return &timeoutEmbedder{next: next, timeout: timeout}
}

type timeoutEmbedder struct {
	next    IEmbedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Embed(ctx, text, taskType)
}

func (t *timeoutEmbedder) ModelName() string {
	return t.next.ModelName()
}
