// Package allocator hands out per-kind integer identifiers inside the
// transaction of the insert they serve.
package allocator

import (
	"context"
	"database/sql"
	"fmt"

	"relief/internal/platform/config"
	"relief/internal/platform/database"
	"relief/internal/relief/entity"
)

// Allocator returns the next identifier for d. It must run in the caller's
// transaction so a rolled-back insert also rolls back its allocation.
type Allocator interface {
	Next(ctx context.Context, tx *sql.Tx, d entity.Descriptor) (int64, error)
}

// New returns the allocator named by strategy.
func New(strategy string, dialect database.Dialect) (Allocator, error) {
	switch strategy {
	case config.AllocatorSequence, "":
		return NewSequence(dialect), nil
	case config.AllocatorMax:
		return NewMax(), nil
	default:
		return nil, fmt.Errorf("unknown id allocator %q", strategy)
	}
}

// nextFromTable is MAX(key)+1, or the floor when that is lower or the table is empty.
func nextFromTable(ctx context.Context, tx *sql.Tx, d entity.Descriptor) (int64, error) {
	var current sql.NullInt64
	query := "SELECT MAX(" + d.Key + ") FROM " + d.Table
	if err := tx.QueryRowContext(ctx, query).Scan(&current); err != nil {
		return 0, fmt.Errorf("read max %s: %w", d.Key, err)
	}
	if current.Valid && current.Int64+1 > d.Floor {
		return current.Int64 + 1, nil
	}
	return d.Floor, nil
}
