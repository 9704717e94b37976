package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestDecodeStrictJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare object", `{"intent":"query","confidence":0.9,"reasoning":"x"}`, false},
		{"json fence", "```json\n{\"intent\":\"query\",\"confidence\":0.9,\"reasoning\":\"x\"}\n```", false},
		{"plain fence", "```\n{\"intent\":\"query\",\"confidence\":0.9,\"reasoning\":\"x\"}\n```", false},
		{"chatter around object", "Sure, here you go: {\"intent\":\"query\",\"confidence\":0.9,\"reasoning\":\"x\"} hope that helps", false},
		{"no object", "I cannot classify that", true},
		{"broken json", `{"intent": "query",`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Classification
			err := decodeStrictJSON(tt.input, &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "query", out.Intent)
		})
	}
}

func TestClassifyDecodesResponse(t *testing.T) {
	gen := &fakeGenerator{response: `{"intent":"ingest_text","confidence":0.85,"reasoning":"looks like note content"}`}
	m := NewManager(gen, nil, ManagerConfig{})

	out, err := m.Classify(context.Background(), "meeting notes from today", "text")
	require.NoError(t, err)
	require.Equal(t, "ingest_text", out.Intent)
	require.Equal(t, 0.85, out.Confidence)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "meeting notes from today")
}

func TestClassifyRejectsOutOfRangeConfidence(t *testing.T) {
	for _, resp := range []string{
		`{"intent":"query","confidence":1.7,"reasoning":"x"}`,
		`{"intent":"query","confidence":-0.2,"reasoning":"x"}`,
	} {
		gen := &fakeGenerator{response: resp}
		m := NewManager(gen, nil, ManagerConfig{})
		_, err := m.Classify(context.Background(), "anything", "text")
		require.Error(t, err)
	}
}

func TestClassifyWithoutGenerator(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{})
	_, err := m.Classify(context.Background(), "anything", "text")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClassifyPropagatesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: 503", ErrTransient)}
	m := NewManager(gen, nil, ManagerConfig{})
	_, err := m.Classify(context.Background(), "anything", "text")
	require.ErrorIs(t, err, ErrTransient)
}

func TestAnalyzeDecodesResponse(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"title\":\"T\",\"summary\":\"S\",\"tags\":[\"a\",\"b\"]}\n```"}
	m := NewManager(nil, gen, ManagerConfig{})

	out, err := m.Analyze(context.Background(), "some content")
	require.NoError(t, err)
	require.Equal(t, "T", out.Title)
	require.Equal(t, "S", out.Summary)
	require.Equal(t, []string{"a", "b"}, out.Tags)
}

func TestAnalyzeRejectsEmptySummary(t *testing.T) {
	gen := &fakeGenerator{response: `{"title":"T","summary":"   ","tags":["a"]}`}
	m := NewManager(nil, gen, ManagerConfig{})
	_, err := m.Analyze(context.Background(), "some content")
	require.Error(t, err)
}

func TestAnalyzeCapsInput(t *testing.T) {
	gen := &fakeGenerator{response: `{"title":"T","summary":"S","tags":[]}`}
	m := NewManager(nil, gen, ManagerConfig{MaxInputChars: 10})

	_, err := m.Analyze(context.Background(), "0123456789OVERFLOW")
	require.NoError(t, err)
	require.Contains(t, gen.prompts[0], "0123456789")
	require.NotContains(t, gen.prompts[0], "OVERFLOW")
}

func TestAnalyzeRejectsEmptyResponse(t *testing.T) {
	gen := &fakeGenerator{response: "   "}
	m := NewManager(nil, gen, ManagerConfig{})
	_, err := m.Analyze(context.Background(), "some content")
	require.Error(t, err)
}
