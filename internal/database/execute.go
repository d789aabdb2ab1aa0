package database

import (
	"context"
)

// Execute runs a read query against the database identified by connString and
// returns the result set as one map per row, keyed by column name. Driver
// byte-slice values are converted to strings so results serialize cleanly.
func Execute(ctx context.Context, connString, query string) ([]map[string]any, error) {
	db, _, err := open(ctx, connString)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecutionError{Err: err}
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Err: err}
	}
	return results, nil
}
