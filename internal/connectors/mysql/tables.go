package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// FirstRow returns one row of table as column/value pairs, or nil when the table is empty.
func (s *Store) FirstRow(ctx context.Context, table string) (map[string]any, error) {
	quoted, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoted+" LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("first row of %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRow(rows, cols)
}

// ScanTable streams every row of table to fn in primary-key order where one exists.
// Iteration stops at the first error returned by fn.
func (s *Store) ScanTable(ctx context.Context, table string, fn func(row map[string]any) error) error {
	quoted, err := quoteIdent(table)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoted)
	if err != nil {
		return fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanRow(rows *sql.Rows, cols []string) (map[string]any, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return rowMap(cols, values), nil
}

// rowMap turns driver values into JSON-friendly ones.
func rowMap(cols []string, values []any) map[string]any {
	out := make(map[string]any, len(cols))
	for i, col := range cols {
		switch v := values[i].(type) {
		case []byte:
			out[col] = string(v)
		case time.Time:
			out[col] = v.UTC().Format(time.RFC3339)
		default:
			out[col] = v
		}
	}
	return out
}
