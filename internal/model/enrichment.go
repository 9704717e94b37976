package model

const (
	EnrichmentSourceAI       = "ai"
	EnrichmentSourceFallback = "fallback"
)

// Enrichment is the summarize-and-tag result. Source records whether it
// came from the reasoning service or the local heuristic.
type Enrichment struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Source  string   `json:"source"`
}

// SimilarityMatch is one entry of a ranked nearest-neighbor result.
// Score is cosine similarity mapped to [0,1].
type SimilarityMatch struct {
	NoteID int64   `json:"note_id"`
	Score  float64 `json:"score"`
}
