// Package store implements the generic relief repository. One Repository
// serves one entity kind; its SQL is derived from the kind's descriptor.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"relief/internal/platform/database"
	"relief/internal/platform/metrics"
	"relief/internal/relief/allocator"
	"relief/internal/relief/entity"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
	"relief/pkg/platform/tx"
)

// Repository runs list, get, create, update and delete for one entity kind.
// Every operation is a single transaction.
type Repository struct {
	db      *database.DB
	desc    entity.Descriptor
	alloc   allocator.Allocator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Repository.
type Option func(*Repository)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// New builds the repository for kind.
func New(db *database.DB, kind entity.Kind, alloc allocator.Allocator, opts ...Option) (*Repository, error) {
	desc, err := entity.Describe(kind)
	if err != nil {
		return nil, err
	}
	if db == nil || alloc == nil {
		return nil, errors.New("store: database and allocator are required")
	}
	r := &Repository{db: db, desc: desc, alloc: alloc, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Descriptor returns the definition this repository is built from.
func (r *Repository) Descriptor() entity.Descriptor { return r.desc }

func (r *Repository) ph(n int) string { return r.db.Dialect.Placeholder(n) }

func (r *Repository) run(ctx context.Context, fn func(ctx context.Context, sqlTx *sql.Tx) error) error {
	return database.Classify(tx.RunInTx(ctx, r.db.DB, fn))
}

// List returns every row ordered by key. The result is never nil.
func (r *Repository) List(ctx context.Context) ([]entity.Record, error) {
	var out []entity.Record
	err := r.run(ctx, func(ctx context.Context, sqlTx *sql.Tx) error {
		var err error
		out, err = queryRecords(ctx, sqlTx, r.desc, selectSQL(r.desc, ""))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one row with its lookups and embedded children.
func (r *Repository) Get(ctx context.Context, id int64) (entity.Record, error) {
	var rec entity.Record
	err := r.run(ctx, func(ctx context.Context, sqlTx *sql.Tx) error {
		recs, err := queryRecords(ctx, sqlTx, r.desc, selectSQL(r.desc, "t."+r.desc.Key+" = "+r.ph(1)), id)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return r.notFound()
		}
		rec = recs[0]
		for _, embed := range r.desc.Embeds {
			child := entity.MustDescribe(embed.Kind)
			children, err := queryRecords(ctx, sqlTx, child, selectSQL(child, "t."+embed.ForeignKey+" = "+r.ph(1)), id)
			if err != nil {
				return err
			}
			rec[embed.As] = children
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create validates fields, allocates an id and inserts the row together with
// any companion row its descriptor declares.
func (r *Repository) Create(ctx context.Context, fields map[string]any) (int64, error) {
	row, err := prepareInsert(ctx, r.desc, fields)
	if err != nil {
		return 0, err
	}
	companion, companionDesc, err := r.prepareCompanion(ctx, fields)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.run(ctx, func(ctx context.Context, sqlTx *sql.Tx) error {
		var err error
		if id, err = r.insert(ctx, sqlTx, r.desc, row); err != nil {
			return err
		}
		if companion == nil {
			return nil
		}
		companion.set(r.desc.Companion.OwnerKey, id)
		_, err = r.insert(ctx, sqlTx, companionDesc, companion)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) prepareCompanion(ctx context.Context, fields map[string]any) (*columns, entity.Descriptor, error) {
	c := r.desc.Companion
	if c == nil {
		return nil, entity.Descriptor{}, nil
	}
	if v, ok := fields[c.Trigger]; !ok || entity.IsBlank(v) {
		return nil, entity.Descriptor{}, nil
	}
	desc := entity.MustDescribe(c.Kind)
	carried := make(map[string]any, len(c.Carry)+1)
	for _, key := range c.Carry {
		if v, ok := fields[key]; ok {
			carried[key] = v
		}
	}
	// The owner id is not known until the insert; a placeholder satisfies the required check.
	carried[c.OwnerKey] = int64(0)
	row, err := prepareInsert(ctx, desc, carried)
	if err != nil {
		return nil, entity.Descriptor{}, err
	}
	return row, desc, nil
}

func (r *Repository) insert(ctx context.Context, sqlTx *sql.Tx, d entity.Descriptor, row *columns) (int64, error) {
	id, err := r.alloc.Next(ctx, sqlTx, d)
	if err != nil {
		return 0, err
	}
	names := append([]string{d.Key}, row.names...)
	args := append([]any{id}, row.values...)
	marks := make([]string, len(names))
	for i := range names {
		marks[i] = r.ph(i + 1)
	}
	query := "INSERT INTO " + d.Table + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if _, err := sqlTx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("insert %s: %w", d.Table, err)
	}
	return id, nil
}

// Update applies the present fields to an existing row.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.run(ctx, func(ctx context.Context, sqlTx *sql.Tx) error {
		if err := r.lock(ctx, sqlTx, id); err != nil {
			return err
		}
		set, err := prepareUpdate(r.desc, fields)
		if err != nil {
			return err
		}
		if len(set.names) == 0 {
			return dErrors.New(dErrors.CodeValidation, "No fields to update")
		}
		assignments := make([]string, len(set.names))
		for i, name := range set.names {
			assignments[i] = name + " = " + r.ph(i+1)
		}
		args := append(set.values, id)
		query := "UPDATE " + r.desc.Table + " SET " + strings.Join(assignments, ", ") +
			" WHERE " + r.desc.Key + " = " + r.ph(len(args))
		if _, err := sqlTx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update %s: %w", r.desc.Table, err)
		}
		return nil
	})
}

// Delete removes a row once no dependent table references it. Cascaded
// children are removed first in the same transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, func(ctx context.Context, sqlTx *sql.Tx) error {
		if err := r.lock(ctx, sqlTx, id); err != nil {
			return err
		}
		for _, dep := range entity.Dependents(r.desc.Kind) {
			var n int64
			query := "SELECT COUNT(*) FROM " + dep.Table + " WHERE " + dep.ForeignKey + " = " + r.ph(1)
			if err := sqlTx.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
				return fmt.Errorf("count %s: %w", dep.Table, err)
			}
			if n > 0 {
				r.metrics.IncrementDeleteBlocked(string(r.desc.Kind), dep.Table)
				r.logger.InfoContext(ctx, "delete blocked by dependents",
					"entity", r.desc.Kind,
					"id", id,
					"dependent", dep.Table,
					"count", n,
				)
				return dErrors.New(dErrors.CodeDependencyConflict, entity.ConflictMessage(r.desc, dep))
			}
		}
		for _, c := range entity.Cascades(r.desc.Kind) {
			query := "DELETE FROM " + c.Table + " WHERE " + c.ForeignKey + " = " + r.ph(1)
			if _, err := sqlTx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("cascade %s: %w", c.Table, err)
			}
		}
		query := "DELETE FROM " + r.desc.Table + " WHERE " + r.desc.Key + " = " + r.ph(1)
		if _, err := sqlTx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("delete %s: %w", r.desc.Table, err)
		}
		return nil
	})
}

// lock confirms the row exists and, where the dialect supports it, holds its
// lock until commit.
func (r *Repository) lock(ctx context.Context, sqlTx *sql.Tx, id int64) error {
	var found int
	query := "SELECT 1 FROM " + r.desc.Table + " WHERE " + r.desc.Key + " = " + r.ph(1) + r.db.Dialect.LockForUpdate()
	err := sqlTx.QueryRowContext(ctx, query, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return r.notFound()
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", r.desc.Table, err)
	}
	return nil
}

func (r *Repository) notFound() error {
	return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, r.desc.NotFound)
}
