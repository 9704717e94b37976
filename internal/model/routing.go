package model

type Intent string

const (
	IntentIngestURL  Intent = "ingest_url"
	IntentIngestText Intent = "ingest_text"
	IntentQuery      Intent = "query"
	IntentSummarize  Intent = "summarize"
	IntentUnknown    Intent = "unknown"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentIngestURL, IntentIngestText, IntentQuery, IntentSummarize, IntentUnknown:
		return true
	}
	return false
}

// RoutingDecision lives for a single request only.
type RoutingDecision struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	// Payload is the text handed to the downstream handler: the URL for
	// ingest_url, the raw content for ingest_text/summarize, the query
	// string for query.
	Payload string `json:"payload"`
}
