// Package sql provides SQL safety validation for generated statements.
package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptySQL indicates the statement is empty after trimming.
var ErrEmptySQL = errors.New("empty SQL statement")

// blockedTokens are rejected anywhere in the statement text, case-insensitively.
// This is a deny-list over the whole statement, not a parsed-AST check: tokens
// embedded in string literals or comments are also caught, trading false
// positives for defense-in-depth.
var blockedTokens = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate",
	"grant", "revoke", "execute", "exec", "xp_", "sp_", ";--", "/*", "*/",
}

// Table references are matched after FROM/JOIN keywords, schema-qualified
// or bare. Pattern scan, not full SQL parsing.
var (
	fromTablePattern = regexp.MustCompile(`(?i)\bFROM\s+(?:[\w]+\.)?([A-Za-z0-9_]+)`)
	joinTablePattern = regexp.MustCompile(`(?i)\bJOIN\s+(?:[\w]+\.)?([A-Za-z0-9_]+)`)
)

// Validate checks a candidate SQL statement against the safety policy:
// non-empty, no blocked tokens, and every referenced table present in the
// allow-list. A passing statement is read-only-by-policy and scoped to
// known tables; syntactic correctness is discovered at execution time.
func Validate(sqlQuery string, allowedTables []string) error {
	if strings.TrimSpace(sqlQuery) == "" {
		return ErrEmptySQL
	}

	lower := strings.ToLower(sqlQuery)
	for _, token := range blockedTokens {
		if strings.Contains(lower, token) {
			return fmt.Errorf("blocked keyword: %s", token)
		}
	}

	allowed := make(map[string]struct{}, len(allowedTables))
	for _, t := range allowedTables {
		allowed[strings.ToLower(t)] = struct{}{}
	}

	for _, table := range referencedTables(sqlQuery) {
		if _, ok := allowed[strings.ToLower(table)]; !ok {
			return fmt.Errorf("table not allowed: %s", table)
		}
	}

	return nil
}

// referencedTables extracts table names following FROM and JOIN keywords.
func referencedTables(sqlQuery string) []string {
	seen := make(map[string]struct{})
	var tables []string
	for _, pattern := range []*regexp.Regexp{fromTablePattern, joinTablePattern} {
		for _, match := range pattern.FindAllStringSubmatch(sqlQuery, -1) {
			name := match[1]
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tables = append(tables, name)
		}
	}
	return tables
}

// EnsureLimit appends a LIMIT clause when the statement has none,
// stripping a trailing terminator first so the clause attaches to the
// final statement. Idempotent: a statement already containing LIMIT is
// returned unchanged apart from whitespace trimming. Guards against
// unbounded scans on time-series tables.
func EnsureLimit(sqlQuery string, defaultLimit int) string {
	trimmed := strings.TrimSpace(sqlQuery)
	if strings.Contains(strings.ToUpper(trimmed), "LIMIT") {
		return trimmed
	}
	trimmed = strings.TrimSuffix(trimmed, ";")
	trimmed = strings.TrimRight(trimmed, " \t\n\r")
	return fmt.Sprintf("%s LIMIT %d", trimmed, defaultLimit)
}
