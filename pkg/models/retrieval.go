package models

// RetrievalCandidate is one dataset ranked against a question. Score is
// similarity-based (semantic strategy) or keyword-overlap-based (keyword
// strategy); the two scales are internally consistent within one retrieval
// call but not comparable across strategies.
type RetrievalCandidate struct {
	DatasetID string  `json:"dataset_id"`
	Label     string  `json:"label"`
	Why       string  `json:"why"`
	Score     float64 `json:"score"`
}
