package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/merlin/internal/fetch"
	"github.com/xxxsen/merlin/internal/index"
	"github.com/xxxsen/merlin/internal/model"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

func newIngestFixture(fetcher fetch.Fetcher, enricher ContentEnricher, embedder *letterEmbedder) (*IngestService, *fakeStore, *index.Index) {
	store := newFakeStore()
	idx := index.New()
	if enricher == nil {
		enricher = &fakeEnricher{}
	}
	if embedder == nil {
		embedder = &letterEmbedder{}
	}
	svc := NewIngestService(store, fetcher, enricher, embedder, idx, testPipelineConfig())
	return svc, store, idx
}

func TestIngestTextHappyPath(t *testing.T) {
	enricher := &fakeEnricher{result: &model.Enrichment{
		Title:   "Raft Notes",
		Summary: "Notes on raft leader election.",
		Tags:    []string{"raft", "consensus"},
		Source:  model.EnrichmentSourceAI,
	}}
	svc, store, idx := newIngestFixture(&fakeFetcher{}, enricher, nil)

	note, _, err := svc.Ingest(context.Background(), "Raft elects a leader per term using randomized timeouts.", "")
	require.NoError(t, err)
	require.Equal(t, int64(1), note.ID)
	require.Equal(t, "Raft Notes", note.Title)
	require.Equal(t, "Notes on raft leader election.", note.Summary)
	require.Equal(t, []string{"raft", "consensus"}, note.Tags)
	require.Equal(t, model.EnrichmentSourceAI, note.Source)
	require.Len(t, note.Embedding, 26)
	require.Equal(t, 1, store.count())
	require.Equal(t, 1, idx.Size())
}

func TestIngestURLHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{title: "Example Post", text: "Cache invalidation strategies for distributed systems."}
	svc, store, _ := newIngestFixture(fetcher, nil, nil)

	note, _, err := svc.Ingest(context.Background(), "https://example.com/post", "")
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)
	// fallback enrichment carries no title, so the fetched one is used
	require.Equal(t, "Example Post", note.Title)
	require.Equal(t, fetcher.text, note.Content)
	require.Equal(t, model.EnrichmentSourceFallback, note.Source)
	require.Equal(t, 1, store.count())
}

func TestIngestRequestedTitleWins(t *testing.T) {
	fetcher := &fakeFetcher{title: "Fetched Title", text: "some page body"}
	svc, _, _ := newIngestFixture(fetcher, nil, nil)

	note, _, err := svc.Ingest(context.Background(), "https://example.com/post", "My Title")
	require.NoError(t, err)
	require.Equal(t, "My Title", note.Title)
}

func TestIngestDerivesTitleFromFirstLine(t *testing.T) {
	svc, _, _ := newIngestFixture(&fakeFetcher{}, nil, nil)
	note, _, err := svc.Ingest(context.Background(), "Standup notes for Tuesday\n\nDiscussed the rollout plan.", "")
	require.NoError(t, err)
	require.Equal(t, "Standup notes for Tuesday", note.Title)
}

func TestIngestEmptyInput(t *testing.T) {
	svc, store, _ := newIngestFixture(&fakeFetcher{}, nil, nil)
	_, _, err := svc.Ingest(context.Background(), "   \n ", "")
	require.ErrorIs(t, err, appErr.ErrEmptyContent)
	require.Equal(t, 0, store.count())
}

func TestIngestFetchFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: status 502", appErr.ErrFetch)}
	svc, store, idx := newIngestFixture(fetcher, nil, nil)

	_, _, err := svc.Ingest(context.Background(), "https://example.com/broken", "")
	require.ErrorIs(t, err, appErr.ErrFetch)
	require.Equal(t, 0, store.count())
	require.Equal(t, 0, idx.Size())
}

func TestIngestFetchedEmptyBody(t *testing.T) {
	fetcher := &fakeFetcher{title: "Empty", text: "   "}
	svc, store, _ := newIngestFixture(fetcher, nil, nil)

	_, _, err := svc.Ingest(context.Background(), "https://example.com/empty", "")
	require.ErrorIs(t, err, appErr.ErrEmptyContent)
	require.Equal(t, 0, store.count())
}

func TestIngestEmbedFailureNothingPersisted(t *testing.T) {
	embedder := &letterEmbedder{err: fmt.Errorf("encoder offline")}
	svc, store, idx := newIngestFixture(&fakeFetcher{}, nil, embedder)

	_, _, err := svc.Ingest(context.Background(), "some perfectly good content", "")
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.Equal(t, 0, store.count())
	require.Equal(t, 0, idx.Size())
}

func TestIngestDimensionMismatchRejected(t *testing.T) {
	embedder := &letterEmbedder{dim: 12}
	svc, store, _ := newIngestFixture(&fakeFetcher{}, nil, embedder)

	_, _, err := svc.Ingest(context.Background(), "some perfectly good content", "")
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.Equal(t, 0, store.count())
}

func TestIngestReturnsNeighbors(t *testing.T) {
	svc, _, _ := newIngestFixture(&fakeFetcher{}, nil, nil)

	_, _, err := svc.Ingest(context.Background(), "Kubernetes rolling upgrades and pod disruption budgets.", "")
	require.NoError(t, err)
	_, _, err = svc.Ingest(context.Background(), "Fix fuzzy jazz quiz buzzwords.", "")
	require.NoError(t, err)

	_, matches, err := svc.Ingest(context.Background(), "Kubernetes upgrades of worker pools and disruption budgets.", "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// the vocabulary-sharing note ranks first
	require.Equal(t, int64(1), matches[0].NoteID)
	require.Greater(t, matches[0].Score, matches[1].Score)
}

func TestIngestUsesDocumentTaskType(t *testing.T) {
	embedder := &letterEmbedder{}
	svc, _, _ := newIngestFixture(&fakeFetcher{}, nil, embedder)

	_, _, err := svc.Ingest(context.Background(), "plain note content", "")
	require.NoError(t, err)
	require.Equal(t, []string{"RETRIEVAL_DOCUMENT"}, embedder.calls)
}

func TestBackfillEmbeddings(t *testing.T) {
	svc, store, idx := newIngestFixture(&fakeFetcher{}, nil, nil)

	// seed a note without an embedding, as if persisted before the encoder
	// was available
	_, err := store.Create(context.Background(), &model.Note{
		Title:   "old note",
		Content: "content written before embeddings existed",
	})
	require.NoError(t, err)
	require.Equal(t, 0, idx.Size())

	require.NoError(t, svc.BackfillEmbeddings(context.Background(), 10))
	require.Equal(t, 1, idx.Size())

	note, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, note.Embedding, 26)

	missing, err := store.ListMissingEmbeddings(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, missing)
}
