package dbcontext

import "database/sql"

// Grid is the two-result-set paging result for typed rows: the first result
// set materialized into models and the total row count from the second.
type Grid[T any] struct {
	Rows      []T
	TotalRows int64
}

// TableGrid is the paging result in tabular form.
type TableGrid struct {
	Table     Table
	TotalRows int64
}

// readTotal advances the cursor to the next result set and reads the total
// row count from the first column of its first row. No second result set, or
// a second set with no rows, yields 0.
func readTotal(rows *sql.Rows) (int64, error) {
	if !rows.NextResultSet() {
		return 0, rows.Err()
	}
	if !rows.Next() {
		return 0, rows.Err()
	}
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return 0, err
	}
	if n, ok := toInt64(raw[0]); ok {
		return n, nil
	}
	return 0, nil
}
