package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/internal/platform/database/databasetest"
	"relief/internal/relief"
	"relief/internal/relief/entity"
)

func TestParseRejectsUnknownResource(t *testing.T) {
	_, err := Parse([]byte("donors:\n  - name: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown resource "donors"`)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("relief_camps: ["))
	require.Error(t, err)
}

func TestApplyFixtures(t *testing.T) {
	ctx := context.Background()
	db := databasetest.NewSQLite(t)
	mod, err := relief.New(db, relief.Config{})
	require.NoError(t, err)

	fixtures, err := Load("testdata/fixtures.yaml")
	require.NoError(t, err)

	created, err := Apply(ctx, mod.Coordinator, fixtures, nil)
	require.NoError(t, err)

	require.Len(t, created, 5)
	assert.Equal(t, Created{Resource: "relief_camps", Key: "camp_id", ID: 1}, created[0])
	assert.Equal(t, Created{Resource: "relief_camps", Key: "camp_id", ID: 2}, created[1])
	assert.Equal(t, Created{Resource: "victims", Key: "victim_id", ID: 1}, created[2])
	assert.Equal(t, Created{Resource: "inventory", Key: "item_id", ID: 201}, created[3])
	assert.Equal(t, Created{Resource: "volunteers", Key: "volunteer_id", ID: 401}, created[4])

	volunteer, err := mod.Repository(entity.KindVolunteer).Get(ctx, 401)
	require.NoError(t, err)
	assignments, ok := volunteer["assignments"].([]entity.Record)
	require.True(t, ok)
	require.Len(t, assignments, 1)
	assert.Equal(t, "2024-06-02", assignments[0]["start_date"])
}

func TestApplyStopsAtRejectedRow(t *testing.T) {
	ctx := context.Background()
	db := databasetest.NewSQLite(t)
	mod, err := relief.New(db, relief.Config{})
	require.NoError(t, err)

	fixtures, err := Parse([]byte(`
relief_camps:
  - camp_name: Riverside
    location: North
    capacity: 10
    contact_person: A
  - camp_name: Broken
    location: North
    capacity: lots
    contact_person: B
`))
	require.NoError(t, err)

	created, err := Apply(ctx, mod.Coordinator, fixtures, nil)
	require.Error(t, err)
	assert.Equal(t, "relief_camps[1]: Invalid value for field: capacity", err.Error())
	assert.Len(t, created, 1)
}
