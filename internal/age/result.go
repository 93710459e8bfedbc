package age

import (
	"database/sql"
	"fmt"
	"strings"
)

// Result holds the rows read from a query, with NULL shown as "NULL".
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// ReadRows reads at most limit rows.
func ReadRows(rows *sql.Rows, limit int) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("age: columns: %w", err)
	}
	res := &Result{Columns: columns}
	for rows.Next() {
		if len(res.Rows) >= limit {
			res.Truncated = true
			break
		}
		vals := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("age: scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("age: rows: %w", err)
	}
	return res, nil
}

// Table formats the result as an ASCII table followed by a row count.
func (r *Result) Table() string {
	if len(r.Columns) == 0 {
		return "(0 rows)\n"
	}

	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = len(c)
	}
	for _, row := range r.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	sep := separator(widths)
	b.WriteString(sep)
	writeRow(&b, widths, r.Columns)
	b.WriteString(sep)
	for _, row := range r.Rows {
		writeRow(&b, widths, row)
	}
	b.WriteString(sep)

	if n := len(r.Rows); n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}
	if r.Truncated {
		fmt.Fprintf(&b, "(truncated at %d rows)\n", len(r.Rows))
	}
	return b.String()
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	b.WriteByte('|')
	for i, cell := range cells {
		fmt.Fprintf(b, " %-*s |", widths[i], cell)
	}
	b.WriteByte('\n')
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}
