package model

// Note is the persisted knowledge unit. Content is immutable after
// creation; Embedding always has the configured dimension.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	Embedding []float32 `json:"-"`
	// Source records whether summary/tags came from the reasoning service
	// or the local fallback.
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`
}

// NoteEmbedding is the slim projection the similarity index loads at startup.
type NoteEmbedding struct {
	NoteID    int64
	Embedding []float32
	CreatedAt int64
}
