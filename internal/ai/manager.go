package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Classification is the structured output of an intent-classification call.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Analysis is the structured output of a summarize-and-tag call.
type Analysis struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Manager issues one provider call per invocation and decodes the raw
// response strictly against the expected schema. It does not retry and it
// does not fall back; callers own that policy. Embedding is not routed
// through the manager: the embedder stack carries its own timeout and
// caching decorators.
type Manager struct {
	classifier IGenerator
	analyzer   IGenerator
	cfg        ManagerConfig
}

func NewManager(classifier IGenerator, analyzer IGenerator, cfg ManagerConfig) *Manager {
	return &Manager{
		classifier: classifier,
		analyzer:   analyzer,
		cfg:        cfg,
	}
}

func (m *Manager) Classify(ctx context.Context, input string, kind string) (*Classification, error) {
	if m.classifier == nil {
		return nil, ErrUnavailable
	}
	prompt := fmt.Sprintf(`You are a routing assistant for a personal knowledge base.
Classify the user input into exactly one intent:
- "ingest_url": a URL whose content should be saved
- "ingest_text": free text content to save
- "query": a search question or retrieval request
- "summarize": a request to summarize or analyze content
- "unknown": none of the above

Input kind (structural guess): %s
Input: %q

Return STRICT JSON only: {"intent": string, "confidence": number between 0 and 1, "reasoning": string}`, kind, input)
	raw, err := m.generateText(ctx, m.classifier, prompt)
	if err != nil {
		return nil, err
	}
	var out Classification
	if err := decodeStrictJSON(raw, &out); err != nil {
		return nil, err
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("confidence out of range: %v", out.Confidence)
	}
	return &out, nil
}

func (m *Manager) Analyze(ctx context.Context, content string) (*Analysis, error) {
	if m.analyzer == nil {
		return nil, ErrUnavailable
	}
	if max := m.cfg.MaxInputChars; max > 0 {
		runes := []rune(content)
		if len(runes) > max {
			content = string(runes[:max])
		}
	}
	prompt := fmt.Sprintf(`You are a reflective content curator.
Analyze the content below:
1. Generate a clear, descriptive title.
2. Summarize it succinctly (120-180 words).
3. Extract 5-10 semantic tags: concise noun phrases, lowercase, no punctuation.

Return STRICT JSON only: {"title": string, "summary": string, "tags": array of strings}

CONTENT:
%s`, content)
	raw, err := m.generateText(ctx, m.analyzer, prompt)
	if err != nil {
		return nil, err
	}
	var out Analysis
	if err := decodeStrictJSON(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("analysis has empty summary")
	}
	return &out, nil
}

func (m *Manager) generateText(ctx context.Context, gen IGenerator, prompt string) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// decodeStrictJSON tolerates markdown code fences around the payload but
// nothing else; any decode failure is a schema violation.
func decodeStrictJSON(output string, dst interface{}) error {
	clean := stripFences(output)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no json object in response")
	}
	dec := json.NewDecoder(strings.NewReader(clean[start : end+1]))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode ai response: %w", err)
	}
	return nil
}

func stripFences(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
