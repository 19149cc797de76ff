// Package relief assembles the relief module: one repository per entity kind,
// the coordinator in front of them and the HTTP handler in front of that.
package relief

import (
	"fmt"
	"log/slog"

	"relief/internal/platform/database"
	"relief/internal/platform/metrics"
	"relief/internal/relief/allocator"
	"relief/internal/relief/coordinator"
	"relief/internal/relief/entity"
	"relief/internal/relief/handler"
	"relief/internal/relief/store"
)

// Config carries the module's tunables. The zero value uses the sequence
// allocator, the default create attempts and slog.Default.
type Config struct {
	Allocator      string
	CreateAttempts int
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Module is the wired relief module.
type Module struct {
	Coordinator *coordinator.Coordinator
	Handler     *handler.Handler
	repos       map[entity.Kind]*store.Repository
}

// New wires every entity kind against db.
func New(db *database.DB, cfg Config) (*Module, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	alloc, err := allocator.New(cfg.Allocator, db.Dialect)
	if err != nil {
		return nil, err
	}

	repos := make(map[entity.Kind]*store.Repository, len(entity.Kinds()))
	services := make(map[entity.Kind]coordinator.Repository, len(entity.Kinds()))
	for _, kind := range entity.Kinds() {
		repo, err := store.New(db, kind, alloc,
			store.WithLogger(logger),
			store.WithMetrics(cfg.Metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("build %s repository: %w", kind, err)
		}
		repos[kind] = repo
		services[kind] = repo
	}

	coord, err := coordinator.New(services,
		coordinator.WithLogger(logger),
		coordinator.WithMetrics(cfg.Metrics),
		coordinator.WithCreateAttempts(cfg.CreateAttempts),
	)
	if err != nil {
		return nil, err
	}

	return &Module{
		Coordinator: coord,
		Handler:     handler.New(coord, db, logger),
		repos:       repos,
	}, nil
}

// Repository returns the store for kind, or nil for an unknown kind.
func (m *Module) Repository(kind entity.Kind) *store.Repository {
	return m.repos[kind]
}
