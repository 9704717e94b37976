package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/merlin/internal/model"
)

// ProcessResult is the unified response of the /process operation. Only the
// fields relevant to the chosen intent are populated.
type ProcessResult struct {
	Decision   *model.RoutingDecision  `json:"decision"`
	Note       *model.Note             `json:"note,omitempty"`
	Similar    []model.SimilarityMatch `json:"similar,omitempty"`
	Results    []SearchResult          `json:"results,omitempty"`
	Recent     []*model.Note           `json:"recent,omitempty"`
	Summarized *SummarizeResult        `json:"summarized,omitempty"`
}

type intentHandler func(ctx context.Context, decision *model.RoutingDecision, result *ProcessResult) error

// ProcessService glues routing to the downstream services through a closed
// dispatch table keyed by intent.
type ProcessService struct {
	router   *RouterService
	handlers map[model.Intent]intentHandler
}

func NewProcessService(router *RouterService, ingest *IngestService, query *QueryService, searchTopK int) *ProcessService {
	s := &ProcessService{router: router}
	s.handlers = map[model.Intent]intentHandler{
		model.IntentIngestURL: func(ctx context.Context, d *model.RoutingDecision, r *ProcessResult) error {
			note, similar, err := ingest.Ingest(ctx, d.Payload, "")
			if err != nil {
				return err
			}
			r.Note, r.Similar = note, similar
			return nil
		},
		model.IntentIngestText: func(ctx context.Context, d *model.RoutingDecision, r *ProcessResult) error {
			note, similar, err := ingest.Ingest(ctx, d.Payload, "")
			if err != nil {
				return err
			}
			r.Note, r.Similar = note, similar
			return nil
		},
		model.IntentQuery: func(ctx context.Context, d *model.RoutingDecision, r *ProcessResult) error {
			results, err := query.Search(ctx, d.Payload, searchTopK)
			if err != nil {
				return err
			}
			r.Results = results
			return nil
		},
		model.IntentSummarize: func(ctx context.Context, d *model.RoutingDecision, r *ProcessResult) error {
			summarized, err := query.Summarize(ctx, d.Payload)
			if err != nil {
				return err
			}
			r.Summarized = summarized
			return nil
		},
		model.IntentUnknown: func(ctx context.Context, d *model.RoutingDecision, r *ProcessResult) error {
			recent, err := query.Recent(ctx, 10)
			if err != nil {
				return err
			}
			r.Recent = recent
			return nil
		},
	}
	return s
}

func (s *ProcessService) Route(ctx context.Context, input string) *model.RoutingDecision {
	return s.router.Route(ctx, input)
}

// Process routes the input and runs the matching handler.
func (s *ProcessService) Process(ctx context.Context, input string) (*ProcessResult, error) {
	decision := s.router.Route(ctx, input)
	result := &ProcessResult{Decision: decision}
	handler, ok := s.handlers[decision.Intent]
	if !ok {
		return nil, fmt.Errorf("no handler for intent %q", decision.Intent)
	}
	if err := handler(ctx, decision, result); err != nil {
		return nil, err
	}
	return result, nil
}
