package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/model"
	"github.com/xxxsen/merlin/internal/normalize"
)

const fallbackConfidence = 0.5

// IntentClassifier is the slice of the enrichment client the router needs.
type IntentClassifier interface {
	Classify(ctx context.Context, input string, kind string) (*ai.Classification, error)
}

// RouterService decides which downstream handler takes an input string.
// Route never returns an error: unusable input maps to IntentUnknown and a
// failed classification call degrades to the structural pass.
type RouterService struct {
	classifier IntentClassifier
}

func NewRouterService(classifier IntentClassifier) *RouterService {
	return &RouterService{classifier: classifier}
}

func (s *RouterService) Route(ctx context.Context, input string) *model.RoutingDecision {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &model.RoutingDecision{
			Intent:     model.IntentUnknown,
			Confidence: 0,
			Reasoning:  "empty input",
		}
	}

	kind := normalize.Classify(trimmed)
	structural := structuralDecision(trimmed, kind)

	if s.classifier == nil {
		return structural
	}
	cls, err := s.classifier.Classify(ctx, trimmed, string(kind))
	if err != nil {
		logutil.GetLogger(ctx).Warn("ai routing failed, using structural classification", zap.Error(err))
		return &model.RoutingDecision{
			Intent:     structural.Intent,
			Confidence: fallbackConfidence,
			Reasoning:  "fallback: heuristic classification",
			Payload:    structural.Payload,
		}
	}
	return &model.RoutingDecision{
		Intent:     model.Intent(cls.Intent),
		Confidence: cls.Confidence,
		Reasoning:  cls.Reasoning,
		Payload:    trimmed,
	}
}

func structuralDecision(input string, kind normalize.Kind) *model.RoutingDecision {
	switch {
	case kind == normalize.KindURL:
		return &model.RoutingDecision{
			Intent:     model.IntentIngestURL,
			Confidence: 0.95,
			Reasoning:  "URL detected",
			Payload:    input,
		}
	case normalize.IsSummarizeRequest(input):
		return &model.RoutingDecision{
			Intent:     model.IntentSummarize,
			Confidence: 0.8,
			Reasoning:  "summarization keywords detected",
			Payload:    input,
		}
	case kind == normalize.KindQuestion:
		return &model.RoutingDecision{
			Intent:     model.IntentQuery,
			Confidence: 0.9,
			Reasoning:  "question keywords detected",
			Payload:    input,
		}
	default:
		return &model.RoutingDecision{
			Intent:     model.IntentIngestText,
			Confidence: 0.85,
			Reasoning:  "text content, routing to ingestion",
			Payload:    input,
		}
	}
}
