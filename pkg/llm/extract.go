package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResponseKind tags the variant carried by a ParsedResponse.
type ResponseKind int

const (
	// ResponseSQL means a SQL statement was extracted, with any metadata.
	ResponseSQL ResponseKind = iota
	// ResponseClarification means the model asked a clarifying question.
	ResponseClarification
	// ResponseFailure means no SQL could be extracted.
	ResponseFailure
)

// ParsedResponse is the structured intent extracted from raw generation
// output. Exactly one variant is populated per parse.
type ParsedResponse struct {
	Kind ResponseKind

	// ResponseSQL fields
	SQL         string
	Assumptions []string
	TablesUsed  []string
	Explanation string

	// ResponseClarification fields
	ClarifyingQuestion string

	// ResponseFailure fields
	FailureReason string
}

// structuredBlockPattern locates the first brace-delimited fragment
// containing a "sql" key. Non-greedy by construction: the character classes
// exclude braces, so only a flat object matches.
var structuredBlockPattern = regexp.MustCompile(`(?s)\{[^{}]*"sql"[^{}]*\}`)

// fencedBlockPattern locates a fenced code span, optionally language-tagged.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")

// ParseSQLResponse extracts structured intent from raw generation output.
// Three strategies are attempted in strict order, first success wins:
// a structured JSON block, a fenced code block, then a raw SELECT scan.
// Generation output is not guaranteed well-formed, so a malformed
// structured block falls through to the next strategy rather than failing.
// Extraction never bypasses guardrail validation downstream.
func ParseSQLResponse(raw string) ParsedResponse {
	text := strings.TrimSpace(raw)

	if parsed, ok := parseStructuredBlock(text); ok {
		return parsed
	}

	if match := fencedBlockPattern.FindStringSubmatch(text); match != nil {
		if sqlText := strings.TrimSpace(match[1]); sqlText != "" {
			return ParsedResponse{Kind: ResponseSQL, SQL: sqlText}
		}
	}

	if parsed, ok := parseRawSelect(text); ok {
		return parsed
	}

	return ParsedResponse{
		Kind:          ResponseFailure,
		FailureReason: "could not extract SQL from response",
	}
}

func parseStructuredBlock(text string) (ParsedResponse, bool) {
	match := structuredBlockPattern.FindString(text)
	if match == "" {
		return ParsedResponse{}, false
	}

	var obj struct {
		SQL                *string  `json:"sql"`
		NeedsClarification bool     `json:"needs_clarification"`
		ClarifyingQuestion string   `json:"clarifying_question"`
		Assumptions        []string `json:"assumptions"`
		TablesUsed         []string `json:"tables_used"`
		Explanation        string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(match), &obj); err != nil {
		// Malformed structured block is not terminal; fall through.
		return ParsedResponse{}, false
	}

	if obj.NeedsClarification && obj.ClarifyingQuestion != "" {
		return ParsedResponse{
			Kind:               ResponseClarification,
			ClarifyingQuestion: obj.ClarifyingQuestion,
		}, true
	}

	if obj.SQL != nil && strings.TrimSpace(*obj.SQL) != "" {
		return ParsedResponse{
			Kind:        ResponseSQL,
			SQL:         strings.TrimSpace(*obj.SQL),
			Assumptions: obj.Assumptions,
			TablesUsed:  obj.TablesUsed,
			Explanation: obj.Explanation,
		}, true
	}

	reason := obj.Explanation
	if reason == "" {
		reason = "could not extract SQL from response"
	}
	return ParsedResponse{Kind: ResponseFailure, FailureReason: reason}, true
}

func parseRawSelect(text string) (ParsedResponse, bool) {
	idx := strings.Index(strings.ToUpper(text), "SELECT")
	if idx < 0 {
		return ParsedResponse{}, false
	}

	sqlText := text[idx:]
	if term := strings.Index(sqlText, ";"); term >= 0 {
		sqlText = sqlText[:term]
	}
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return ParsedResponse{}, false
	}

	// Normalize to end with exactly one statement terminator.
	return ParsedResponse{Kind: ResponseSQL, SQL: sqlText + ";"}, true
}
