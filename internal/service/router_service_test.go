package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/merlin/internal/ai"
	"github.com/xxxsen/merlin/internal/model"
)

func TestRouteEmptyInput(t *testing.T) {
	svc := NewRouterService(nil)
	for _, input := range []string{"", "   ", "\n\t"} {
		decision := svc.Route(context.Background(), input)
		require.Equal(t, model.IntentUnknown, decision.Intent)
		require.Equal(t, 0.0, decision.Confidence)
	}
}

func TestRouteStructuralWithoutClassifier(t *testing.T) {
	svc := NewRouterService(nil)
	tests := []struct {
		name   string
		input  string
		intent model.Intent
	}{
		{"url", "https://example.com/article", model.IntentIngestURL},
		{"http url", "http://blog.example.org/post?id=3", model.IntentIngestURL},
		{"question mark", "What are my notes about machine learning?", model.IntentQuery},
		{"question lead word", "how does raft handle leader election", model.IntentQuery},
		{"summarize request", "summarize my notes from this week", model.IntentSummarize},
		{"plain text", "Met with the platform team about the Q3 migration plan.", model.IntentIngestText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := svc.Route(context.Background(), tt.input)
			require.Equal(t, tt.intent, decision.Intent)
			require.Greater(t, decision.Confidence, 0.0)
			require.NotEmpty(t, decision.Reasoning)
		})
	}
}

func TestRoutePrefersClassifier(t *testing.T) {
	classifier := &fakeClassifier{
		result: &ai.Classification{
			Intent:     "query",
			Confidence: 0.97,
			Reasoning:  "the user is asking about stored notes",
		},
	}
	svc := NewRouterService(classifier)
	decision := svc.Route(context.Background(), "  notes about kubernetes upgrades  ")
	require.Equal(t, model.IntentQuery, decision.Intent)
	require.Equal(t, 0.97, decision.Confidence)
	require.Equal(t, "the user is asking about stored notes", decision.Reasoning)
	require.Equal(t, "notes about kubernetes upgrades", decision.Payload)
	require.Equal(t, 1, classifier.calls)
}

func TestRouteFallsBackOnClassifierError(t *testing.T) {
	classifier := &fakeClassifier{err: fmt.Errorf("service down")}
	svc := NewRouterService(classifier)

	decision := svc.Route(context.Background(), "https://example.com/page")
	require.Equal(t, model.IntentIngestURL, decision.Intent)
	require.Equal(t, 0.5, decision.Confidence)
	require.Equal(t, "fallback: heuristic classification", decision.Reasoning)

	decision = svc.Route(context.Background(), "where did I put the deployment checklist?")
	require.Equal(t, model.IntentQuery, decision.Intent)
	require.Equal(t, 0.5, decision.Confidence)
	require.Equal(t, "fallback: heuristic classification", decision.Reasoning)
}

func TestRouteEmptySkipsClassifier(t *testing.T) {
	classifier := &fakeClassifier{result: &ai.Classification{Intent: "query", Confidence: 1}}
	svc := NewRouterService(classifier)
	decision := svc.Route(context.Background(), "   ")
	require.Equal(t, model.IntentUnknown, decision.Intent)
	require.Equal(t, 0, classifier.calls)
}
