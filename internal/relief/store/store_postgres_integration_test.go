//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"relief/internal/platform/database"
	"relief/internal/relief/allocator"
	"relief/internal/relief/entity"
	"relief/internal/relief/store"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/testutil/containers"
)

type PostgresRepositorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *database.DB
}

func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.db = &database.DB{DB: s.postgres.DB, Dialect: database.Postgres}
	s.Require().NoError(s.db.Bootstrap(context.Background()))
}

func (s *PostgresRepositorySuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"supply", "donation", "donor", "volunteer_assignment", "volunteer",
		"missing_person_report", "inventory", "victim_survivor", "relief_camp", "id_sequence")
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) repo(kind entity.Kind, alloc allocator.Allocator) *store.Repository {
	r, err := store.New(s.db, kind, alloc)
	s.Require().NoError(err)
	return r
}

// TestConcurrentCreatesWithSequence verifies that parallel writers on separate
// connections never receive the same id and leave no gaps.
func (s *PostgresRepositorySuite) TestConcurrentCreatesWithSequence() {
	ctx := context.Background()
	repo := s.repo(entity.KindVolunteer, allocator.NewSequence(database.Postgres))
	const writers = 50

	var (
		mu  sync.Mutex
		ids = make(map[int64]struct{}, writers)
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			id, err := repo.Create(gctx, map[string]any{
				"first_name": "Par", "last_name": "Allel", "contact_number": "1",
			})
			if err != nil {
				return err
			}
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Len(ids, writers)
	for id := int64(401); id < 401+writers; id++ {
		s.Contains(ids, id)
	}
}

// TestConcurrentCreatesWithMaxSurfaceRetryableConflicts verifies that the
// max+1 strategy turns collisions into retryable store conflicts, never duplicates.
func (s *PostgresRepositorySuite) TestConcurrentCreatesWithMaxSurfaceRetryableConflicts() {
	ctx := context.Background()
	repo := s.repo(entity.KindCamp, allocator.NewMax())
	const writers = 20

	var (
		mu        sync.Mutex
		ids       = make(map[int64]struct{}, writers)
		conflicts int
		wg        sync.WaitGroup
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.Create(ctx, map[string]any{
				"camp_name": "c", "location": "l", "capacity": 1, "contact_person": "p",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.True(database.IsRetryable(err), "unexpected error: %v", err)
				conflicts++
				return
			}
			_, dup := ids[id]
			s.False(dup, "id %d issued twice", id)
			ids[id] = struct{}{}
		}()
	}
	wg.Wait()
	s.Equal(writers, len(ids)+conflicts)
}

func (s *PostgresRepositorySuite) TestDeleteGuardAndCascade() {
	ctx := context.Background()
	seq := allocator.NewSequence(database.Postgres)
	camps := s.repo(entity.KindCamp, seq)
	volunteers := s.repo(entity.KindVolunteer, seq)

	campID, err := camps.Create(ctx, map[string]any{
		"camp_name": "Harbor", "location": "Dock", "capacity": 80, "contact_person": "Q",
	})
	s.Require().NoError(err)
	volunteerID, err := volunteers.Create(ctx, map[string]any{
		"first_name": "V", "last_name": "W", "contact_number": "2", "camp_id": campID,
	})
	s.Require().NoError(err)

	rec, err := volunteers.Get(ctx, volunteerID)
	s.Require().NoError(err)
	assignment := rec["assignments"].([]entity.Record)[0]
	s.Equal("Harbor", assignment["camp_name"])
	s.IsType("", assignment["start_date"])

	err = camps.Delete(ctx, campID)
	s.True(dErrors.HasCode(err, dErrors.CodeDependencyConflict))
	s.Equal("Cannot delete camp with assigned volunteers", dErrors.PublicMessage(err))

	s.Require().NoError(volunteers.Delete(ctx, volunteerID))
	s.Require().NoError(camps.Delete(ctx, campID))
}
