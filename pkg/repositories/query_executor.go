package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ai-financer/nlq-engine/pkg/database"
	"github.com/ai-financer/nlq-engine/pkg/models"
)

// QueryExecutor runs validated read-only SQL against the analytical store.
// Statements reach it only after guardrail validation and limit injection.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlQuery string) (*models.QueryResults, error)
}

type queryExecutor struct {
	db *database.DB
}

// NewQueryExecutor creates a new QueryExecutor.
func NewQueryExecutor(db *database.DB) QueryExecutor {
	return &queryExecutor{db: db}
}

var _ QueryExecutor = (*queryExecutor)(nil)

// Execute runs the statement and returns columns plus rows in store-return
// order. Temporal values are serialized to RFC 3339 text so results are
// stable across stores and safe to encode as JSON.
func (e *queryExecutor) Execute(ctx context.Context, sqlQuery string) (*models.QueryResults, error) {
	rows, err := e.db.Query(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = serializeValue(values[i])
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &models.QueryResults{
		Columns: columns,
		Rows:    resultRows,
	}, nil
}

// serializeValue canonicalizes temporal values to text. Date-only values
// keep the date form; anything with a time component uses RFC 3339.
func serializeValue(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
