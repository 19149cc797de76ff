package allocator

import (
	"context"
	"database/sql"
	"fmt"

	"relief/internal/platform/database"
	"relief/internal/relief/entity"
)

// Sequence keeps a high-water mark per kind in id_sequence. The upsert takes
// the kind's row lock, so concurrent allocators queue behind each other and an
// id is never reissued after its row is deleted.
type Sequence struct {
	advance string
}

func NewSequence(dialect database.Dialect) *Sequence {
	return &Sequence{
		advance: fmt.Sprintf(`INSERT INTO id_sequence (kind, last_id) VALUES (%s, %s)
ON CONFLICT (kind) DO UPDATE SET last_id = CASE
	WHEN id_sequence.last_id + 1 > excluded.last_id THEN id_sequence.last_id + 1
	ELSE excluded.last_id
END
RETURNING last_id`, dialect.Placeholder(1), dialect.Placeholder(2)),
	}
}

// Next returns max(last_id+1, MAX(key)+1, floor) and records it.
// Rows inserted before the sequence existed are covered by the MAX term.
func (s *Sequence) Next(ctx context.Context, tx *sql.Tx, d entity.Descriptor) (int64, error) {
	candidate, err := nextFromTable(ctx, tx, d)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRowContext(ctx, s.advance, string(d.Kind), candidate).Scan(&id); err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", d.Kind, err)
	}
	return id, nil
}
