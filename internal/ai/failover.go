package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// FailoverCandidate is one backend in a priority-ordered chain. A single
// config entry usually yields both the generator and the embedder, so they
// travel together.
type FailoverCandidate struct {
	Name      string
	Generator IGenerator
	Embedder  IEmbedder
}

// NewFailoverGenerator chains generators in priority order: each call walks
// the chain and returns the first success. A chain with one usable candidate
// collapses to that candidate.
func NewFailoverGenerator(candidates []FailoverCandidate) IGenerator {
	usable := make([]FailoverCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Generator != nil {
			usable = append(usable, cand)
		}
	}
	switch len(usable) {
	case 0:
		return nil
	case 1:
		return usable[0].Generator
	}
	return &failoverGenerator{candidates: usable}
}

// NewFailoverEmbedder is the embedding counterpart of NewFailoverGenerator.
func NewFailoverEmbedder(candidates []FailoverCandidate) IEmbedder {
	usable := make([]FailoverCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Embedder != nil {
			usable = append(usable, cand)
		}
	}
	switch len(usable) {
	case 0:
		return nil
	case 1:
		return usable[0].Embedder
	}
	return &failoverEmbedder{candidates: usable}
}

type failoverGenerator struct {
	candidates []FailoverCandidate
}

func (f *failoverGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var failures []error
	for _, cand := range f.candidates {
		res, err := cand.Generator.Generate(ctx, prompt)
		if err == nil {
			if len(failures) > 0 {
				logutil.GetLogger(ctx).Info("ai failover recovered",
					zap.String("backend", cand.Name), zap.Int("failed_backends", len(failures)))
			}
			return res, nil
		}
		logutil.GetLogger(ctx).Warn("ai backend failed, trying next",
			zap.String("backend", cand.Name), zap.Error(err))
		failures = append(failures, fmt.Errorf("%s: %w", cand.Name, err))
	}
	return "", errors.Join(failures...)
}

type failoverEmbedder struct {
	candidates []FailoverCandidate
}

func (f *failoverEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var failures []error
	for _, cand := range f.candidates {
		res, err := cand.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		logutil.GetLogger(ctx).Warn("embed backend failed, trying next",
			zap.String("backend", cand.Name), zap.Error(err))
		failures = append(failures, fmt.Errorf("%s: %w", cand.Name, err))
	}
	return nil, errors.Join(failures...)
}

// ModelName joins the chain members so cache keys distinguish a chained
// deployment from any of its members alone.
func (f *failoverEmbedder) ModelName() string {
	names := make([]string, 0, len(f.candidates))
	for _, cand := range f.candidates {
		names = append(names, cand.Embedder.ModelName())
	}
	return strings.Join(names, "+")
}
