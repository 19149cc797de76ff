package database

import (
	"context"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema returns the DDL statements for dialect in dependency order.
func Schema(dialect Dialect) ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + dialect.Name() + ".sql")
	if err != nil {
		return nil, fmt.Errorf("read %s schema: %w", dialect.Name(), err)
	}
	var stmts []string
	for _, stmt := range strings.Split(string(raw), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

// Bootstrap creates any missing tables. It never alters existing ones.
func (db *DB) Bootstrap(ctx context.Context) error {
	stmts, err := Schema(db.Dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", Classify(err))
		}
	}
	return nil
}
