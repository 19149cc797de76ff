package allocator

import (
	"context"
	"database/sql"

	"relief/internal/relief/entity"
)

// Max allocates MAX(key)+1. Two concurrent writers can draw the same value;
// the primary key turns the loser into a retryable conflict. Ids of deleted
// top rows are handed out again.
type Max struct{}

func NewMax() *Max { return &Max{} }

func (*Max) Next(ctx context.Context, tx *sql.Tx, d entity.Descriptor) (int64, error) {
	return nextFromTable(ctx, tx, d)
}
