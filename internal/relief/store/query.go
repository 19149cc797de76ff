package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"relief/internal/relief/entity"
)

// selectSQL reads d's columns plus its lookup column, ordered by key.
func selectSQL(d entity.Descriptor, where string) string {
	cols := make([]string, 0, len(d.Fields)+2)
	for _, c := range d.Columns() {
		cols = append(cols, "t."+c)
	}
	from := d.Table + " t"
	if l := d.Lookup; l != nil {
		cols = append(cols, "p."+l.Column+" AS "+l.As)
		from += " LEFT JOIN " + l.Table + " p ON p." + l.Key + " = t." + l.ForeignKey
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	b.WriteString(" ORDER BY t.")
	b.WriteString(d.Key)
	return b.String()
}

func recordNames(d entity.Descriptor) []string {
	names := d.Columns()
	if d.Lookup != nil {
		names = append(names, d.Lookup.As)
	}
	return names
}

func queryRecords(ctx context.Context, sqlTx *sql.Tx, d entity.Descriptor, query string, args ...any) ([]entity.Record, error) {
	rows, err := sqlTx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", d.Table, err)
	}
	defer func() { _ = rows.Close() }()

	names := recordNames(d)
	out := []entity.Record{}
	for rows.Next() {
		values := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.Table, err)
		}
		rec := make(entity.Record, len(names))
		for i, name := range names {
			rec[name] = entity.Normalize(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", d.Table, err)
	}
	return out, nil
}
