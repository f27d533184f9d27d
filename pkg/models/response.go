package models

// QueryStatus tags the variant carried by a QueryResponse.
type QueryStatus string

const (
	StatusOK                 QueryStatus = "ok"
	StatusNeedsSelection     QueryStatus = "needs_selection"
	StatusNeedsClarification QueryStatus = "needs_clarification"
	StatusError              QueryStatus = "error"
)

// QueryResponse is the externally visible result of one question. Exactly
// one variant is populated: ok carries dataset/sql/results/explanation,
// needs_selection carries choices, needs_clarification carries the
// clarifying question, and error carries a message plus whatever SQL and
// dataset context was resolved before the failure.
type QueryResponse struct {
	Status QueryStatus `json:"status"`

	// ok variant (DatasetID and SQL also set on error when known)
	DatasetID   string            `json:"dataset_id,omitempty"`
	SQL         string            `json:"sql,omitempty"`
	Results     *QueryResults     `json:"results,omitempty"`
	Explanation *QueryExplanation `json:"explanation,omitempty"`

	// needs_selection variant
	Choices []DatasetChoice `json:"choices,omitempty"`

	// needs_clarification variant
	ClarifyingQuestion string `json:"clarifying_question,omitempty"`

	// error variant and user-facing prompts
	Message string `json:"message,omitempty"`
}

// QueryResults holds executed columns and rows in store-return order.
type QueryResults struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// QueryExplanation carries generation metadata surfaced with results.
type QueryExplanation struct {
	Tables      []string `json:"tables"`
	Assumptions []string `json:"assumptions"`
	Notes       string   `json:"notes"`
}

// DatasetChoice is one option surfaced when dataset selection is ambiguous.
type DatasetChoice struct {
	DatasetID string `json:"dataset_id"`
	Label     string `json:"label"`
	Why       string `json:"why"`
}
