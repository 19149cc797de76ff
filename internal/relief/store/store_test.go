package store_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"relief/internal/platform/database"
	"relief/internal/platform/database/databasetest"
	"relief/internal/relief/allocator"
	"relief/internal/relief/entity"
	"relief/internal/relief/store"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
	"relief/pkg/requestcontext"
)

var submitted = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

type RepositorySuite struct {
	suite.Suite
	db    *database.DB
	ctx   context.Context
	repos map[entity.Kind]*store.Repository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.db = databasetest.NewSQLite(s.T())
	s.ctx = requestcontext.WithTime(context.Background(), submitted)
	s.repos = make(map[entity.Kind]*store.Repository)
	seq := allocator.NewSequence(s.db.Dialect)
	for _, kind := range entity.Kinds() {
		repo, err := store.New(s.db, kind, seq)
		s.Require().NoError(err)
		s.repos[kind] = repo
	}
}

func (s *RepositorySuite) create(kind entity.Kind, fields map[string]any) int64 {
	id, err := s.repos[kind].Create(s.ctx, fields)
	s.Require().NoError(err)
	return id
}

func (s *RepositorySuite) camp(name string) int64 {
	return s.create(entity.KindCamp, map[string]any{
		"camp_name":      name,
		"location":       "Riverside",
		"capacity":       json.Number("120"),
		"contact_person": "A. Mensah",
	})
}

func (s *RepositorySuite) requireCode(err error, code dErrors.Code, message string) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
	s.Equal(message, dErrors.PublicMessage(err))
}

func (s *RepositorySuite) TestCreateAndGetRoundTrip() {
	id := s.camp("North Camp")
	s.Equal(int64(1), id)

	rec, err := s.repos[entity.KindCamp].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(entity.Record{
		"camp_id":        int64(1),
		"camp_name":      "North Camp",
		"location":       "Riverside",
		"capacity":       int64(120),
		"contact_person": "A. Mensah",
	}, rec)
}

func (s *RepositorySuite) TestCreateAcceptsNameAlias() {
	id := s.create(entity.KindCamp, map[string]any{
		"name":           "Alias Camp",
		"location":       "Hill",
		"capacity":       "30",
		"contact_person": "B",
	})
	rec, err := s.repos[entity.KindCamp].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Alias Camp", rec["camp_name"])
	s.Equal(int64(30), rec["capacity"])
}

func (s *RepositorySuite) TestCreateReportsFirstMissingField() {
	_, err := s.repos[entity.KindCamp].Create(s.ctx, map[string]any{
		"camp_name": "x",
		"capacity":  json.Number("1"),
	})
	s.requireCode(err, dErrors.CodeValidation, "Missing required field: location")

	_, err = s.repos[entity.KindVictim].Create(s.ctx, map[string]any{
		"first_name": "   ",
		"last_name":  "Doe",
	})
	s.requireCode(err, dErrors.CodeValidation, "Missing required field: first_name")
}

func (s *RepositorySuite) TestCreateRejectsUncoercibleValue() {
	_, err := s.repos[entity.KindInventory].Create(s.ctx, map[string]any{
		"item_name": "Water",
		"quantity":  "lots",
	})
	s.requireCode(err, dErrors.CodeValidation, "Invalid value for field: quantity")
}

func (s *RepositorySuite) TestCreateDefaultsSubmissionDate() {
	campID := s.camp("Depot")
	id := s.create(entity.KindInventory, map[string]any{
		"item_name": "Blankets",
		"quantity":  json.Number("50"),
		"camp_id":   json.Number("1"),
	})
	s.Equal(int64(201), id)

	rec, err := s.repos[entity.KindInventory].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("2024-05-14", rec["date_received"])
	s.Equal(campID, rec["camp_id"])
	s.Equal("Depot", rec["camp_name"])
}

func (s *RepositorySuite) TestListOrdersByKeyWithLookup() {
	s.camp("One")
	s.create(entity.KindVictim, map[string]any{"first_name": "B", "last_name": "Two", "camp_id": json.Number("1")})
	s.create(entity.KindVictim, map[string]any{"first_name": "A", "last_name": "One"})

	recs, err := s.repos[entity.KindVictim].List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(int64(1), recs[0]["victim_id"])
	s.Equal("One", recs[0]["camp_name"])
	s.Equal(int64(2), recs[1]["victim_id"])
	s.Nil(recs[1]["camp_name"])
	s.Nil(recs[1]["date_of_birth"])
}

func (s *RepositorySuite) TestListEmptyIsNotNil() {
	recs, err := s.repos[entity.KindVolunteer].List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(recs)
	s.Empty(recs)
}

func (s *RepositorySuite) TestGetMissing() {
	_, err := s.repos[entity.KindMissingPerson].Get(s.ctx, 7)
	s.requireCode(err, dErrors.CodeNotFound, "Missing person report not found")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RepositorySuite) TestVolunteerWithCampCreatesAssignment() {
	s.camp("Base")
	id := s.create(entity.KindVolunteer, map[string]any{
		"first_name":     "Ama",
		"last_name":      "Owusu",
		"contact_number": "555-0100",
		"camp_id":        json.Number("1"),
	})
	s.Equal(int64(401), id)

	rec, err := s.repos[entity.KindVolunteer].Get(s.ctx, id)
	s.Require().NoError(err)
	assignments, ok := rec["assignments"].([]entity.Record)
	s.Require().True(ok)
	s.Require().Len(assignments, 1)
	s.Equal(int64(101), assignments[0]["assignment_id"])
	s.Equal(id, assignments[0]["volunteer_id"])
	s.Equal("2024-05-14", assignments[0]["start_date"])
	s.Nil(assignments[0]["end_date"])
	s.Equal("Base", assignments[0]["camp_name"])
}

func (s *RepositorySuite) TestVolunteerWithoutCampHasNoAssignments() {
	id := s.create(entity.KindVolunteer, map[string]any{
		"first_name":     "Kofi",
		"last_name":      "Boateng",
		"contact_number": "555-0101",
		"camp_id":        "",
		"skills":         "first aid",
	})
	rec, err := s.repos[entity.KindVolunteer].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(rec["assignments"])
	s.Equal("first aid", rec["skills"])
}

func (s *RepositorySuite) TestVolunteerAssignmentKeepsSuppliedDates() {
	s.camp("Base")
	id := s.create(entity.KindVolunteer, map[string]any{
		"first_name":     "Esi",
		"last_name":      "Addo",
		"contact_number": "555-0102",
		"camp_id":        "1",
		"start_date":     "2024-06-01",
		"end_date":       "2024-06-30",
	})
	rec, err := s.repos[entity.KindVolunteer].Get(s.ctx, id)
	s.Require().NoError(err)
	assignment := rec["assignments"].([]entity.Record)[0]
	s.Equal("2024-06-01", assignment["start_date"])
	s.Equal("2024-06-30", assignment["end_date"])
}

func (s *RepositorySuite) TestVolunteerCompanionFailureRollsBackOwner() {
	_, err := s.repos[entity.KindVolunteer].Create(s.ctx, map[string]any{
		"first_name":     "No",
		"last_name":      "Camp",
		"contact_number": "1",
		"camp_id":        json.Number("99"),
	})
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrConflict)

	recs, err := s.repos[entity.KindVolunteer].List(s.ctx)
	s.Require().NoError(err)
	s.Empty(recs)
}

func (s *RepositorySuite) TestUpdateAppliesOnlyPresentFields() {
	id := s.create(entity.KindVictim, map[string]any{
		"first_name":    "Jane",
		"last_name":     "Doe",
		"contact_no":    "555",
		"address":       "1 Road",
		"date_of_birth": "1990-01-02",
	})

	err := s.repos[entity.KindVictim].Update(s.ctx, id, map[string]any{
		"first_name": "",
		"contact_no": "",
		"address":    "2 Road",
		"unknown":    "ignored",
	})
	s.Require().NoError(err)

	rec, err := s.repos[entity.KindVictim].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Jane", rec["first_name"], "blank required field is ignored")
	s.Nil(rec["contact_no"], "blank optional field is cleared")
	s.Equal("2 Road", rec["address"])
	s.Equal("Doe", rec["last_name"])
	s.Equal("1990-01-02", rec["date_of_birth"])
}

func (s *RepositorySuite) TestUpdateIgnoresBlankDefaultedDate() {
	id := s.create(entity.KindMissingPerson, map[string]any{
		"reporter_name":       "R",
		"missing_person_name": "M",
		"last_seen_location":  "L",
		"contact":             "C",
		"date_reported":       "2024-01-01",
	})
	err := s.repos[entity.KindMissingPerson].Update(s.ctx, id, map[string]any{"date_reported": "", "contact": "D"})
	s.Require().NoError(err)

	rec, err := s.repos[entity.KindMissingPerson].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("2024-01-01", rec["date_reported"])
	s.Equal("D", rec["contact"])
}

func (s *RepositorySuite) TestUpdateWithNothingToApply() {
	id := s.camp("Quiet")
	before, err := s.repos[entity.KindCamp].Get(s.ctx, id)
	s.Require().NoError(err)

	err = s.repos[entity.KindCamp].Update(s.ctx, id, map[string]any{"camp_name": " ", "other": 1})
	s.requireCode(err, dErrors.CodeValidation, "No fields to update")

	after, err := s.repos[entity.KindCamp].Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Equal("Quiet", after["camp_name"])
}

func (s *RepositorySuite) TestUpdateMissingBeforeValidation() {
	err := s.repos[entity.KindCamp].Update(s.ctx, 42, map[string]any{})
	s.requireCode(err, dErrors.CodeNotFound, "Camp not found")
}

func (s *RepositorySuite) TestDeleteCampBlockedByEachDependent() {
	tests := []struct {
		name    string
		kind    entity.Kind
		fields  map[string]any
		message string
	}{
		{"victims", entity.KindVictim, map[string]any{"first_name": "a", "last_name": "b"}, "Cannot delete camp with associated victims"},
		{"inventory", entity.KindInventory, map[string]any{"item_name": "a", "quantity": 1}, "Cannot delete camp with associated inventory items"},
		{"volunteers", entity.KindVolunteer, map[string]any{"first_name": "a", "last_name": "b", "contact_number": "c"}, "Cannot delete camp with assigned volunteers"},
		{"missing persons", entity.KindMissingPerson, map[string]any{"reporter_name": "a", "missing_person_name": "b", "last_seen_location": "c", "contact": "d"}, "Cannot delete camp with associated missing person reports"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			campID := s.camp("Guarded " + tt.name)
			tt.fields["camp_id"] = campID
			s.create(tt.kind, tt.fields)

			err := s.repos[entity.KindCamp].Delete(s.ctx, campID)
			s.requireCode(err, dErrors.CodeDependencyConflict, tt.message)

			_, err = s.repos[entity.KindCamp].Get(s.ctx, campID)
			s.NoError(err, "camp must survive a refused delete")
		})
	}
}

func (s *RepositorySuite) TestDeleteVictimBlockedByReport() {
	victimID := s.create(entity.KindVictim, map[string]any{"first_name": "a", "last_name": "b"})
	s.create(entity.KindMissingPerson, map[string]any{
		"reporter_name": "r", "missing_person_name": "m", "last_seen_location": "l", "contact": "c",
		"victim_id": victimID,
	})
	err := s.repos[entity.KindVictim].Delete(s.ctx, victimID)
	s.requireCode(err, dErrors.CodeDependencyConflict, "Cannot delete victim with associated missing person reports")
}

func (s *RepositorySuite) TestDeleteInventoryBlockedByExternalTables() {
	tests := []struct {
		insert  string
		message string
	}{
		{`INSERT INTO donor (donor_id, donor_name, item_id) VALUES (1, 'd', ?1)`, "Cannot delete item with associated donors"},
		{`INSERT INTO donation (donation_id, item_id) VALUES (1, ?1)`, "Cannot delete item with associated donations"},
		{`INSERT INTO supply (supply_id, item_id) VALUES (1, ?1)`, "Cannot delete item with associated supplies"},
	}
	for _, tt := range tests {
		s.Run(tt.message, func() {
			s.SetupTest()
			itemID := s.create(entity.KindInventory, map[string]any{"item_name": "Rice", "quantity": 5})
			_, err := s.db.ExecContext(s.ctx, tt.insert, itemID)
			s.Require().NoError(err)

			err = s.repos[entity.KindInventory].Delete(s.ctx, itemID)
			s.requireCode(err, dErrors.CodeDependencyConflict, tt.message)
		})
	}
}

func (s *RepositorySuite) TestDeleteLeafAndMissing() {
	id := s.create(entity.KindMissingPerson, map[string]any{
		"reporter_name": "r", "missing_person_name": "m", "last_seen_location": "l", "contact": "c",
	})
	s.Require().NoError(s.repos[entity.KindMissingPerson].Delete(s.ctx, id))

	err := s.repos[entity.KindMissingPerson].Delete(s.ctx, id)
	s.requireCode(err, dErrors.CodeNotFound, "Missing person report not found")
}

func (s *RepositorySuite) TestDeleteVolunteerCascadesAssignments() {
	campID := s.camp("Cascade")
	volunteerID := s.create(entity.KindVolunteer, map[string]any{
		"first_name": "a", "last_name": "b", "contact_number": "c", "camp_id": campID,
	})

	s.Require().NoError(s.repos[entity.KindVolunteer].Delete(s.ctx, volunteerID))

	var n int
	s.Require().NoError(s.db.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM volunteer_assignment`).Scan(&n))
	s.Zero(n)

	// With the assignment gone the camp is free again.
	s.Require().NoError(s.repos[entity.KindCamp].Delete(s.ctx, campID))
}

func (s *RepositorySuite) TestIDsNeverReusedAfterDelete() {
	first := s.camp("a")
	second := s.camp("b")
	s.Require().NoError(s.repos[entity.KindCamp].Delete(s.ctx, second))
	third := s.camp("c")

	s.Equal(int64(1), first)
	s.Equal(int64(2), second)
	s.Equal(int64(3), third)
}

func (s *RepositorySuite) TestParallelCreatesYieldDistinctIDs() {
	const writers = 20
	var (
		mu  sync.Mutex
		ids = make(map[int64]struct{}, writers)
	)
	g, ctx := errgroup.WithContext(s.ctx)
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			id, err := s.repos[entity.KindInventory].Create(ctx, map[string]any{"item_name": "Tarp", "quantity": 1})
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
	for id := int64(201); id < 201+writers; id++ {
		s.Contains(ids, id)
	}
}
