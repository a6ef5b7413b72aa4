package schedule

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtime/internal/model"
	"crewtime/internal/store"
	"crewtime/internal/timeline"
	"crewtime/internal/travel"
)

const date = "2025-03-03"

func newService(t *testing.T, prov travel.Provider) (*Service, *store.Memory) {
	t.Helper()
	return newServiceWithOptions(t, prov, timeline.Options{WorkdayEndMinutes: 720})
}

func newServiceWithOptions(t *testing.T, prov travel.Provider, opts timeline.Options) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.PutCrew(model.Crew{ID: "c1", HomeBase: "hq"})
	mem.PutAssignments(
		model.Assignment{ID: "a", CrewID: "c1", Date: date, StartMinutes: 480, EndMinutes: 540, Address: "site-a"},
		model.Assignment{ID: "b", CrewID: "c1", Date: date, StartMinutes: 600, EndMinutes: 660, Address: "site-b"},
	)
	if prov == nil {
		prov = travel.ProviderFunc(func(context.Context, string, string) (int, bool) { return 25, true })
	}
	r := travel.NewResolver(travel.NewCache(), prov)
	return New(mem, r, opts, zerolog.Nop()), mem
}

func TestTimeline(t *testing.T) {
	s, _ := newService(t, nil)
	tl, err := s.Timeline(context.Background(), "c1", date)
	require.NoError(t, err)
	require.Len(t, tl.Items, 3)
	assert.Equal(t, model.ItemTravel, tl.Items[1].Type)
	assert.Equal(t, 540, tl.Items[1].Travel.StartMinutes)
	assert.Equal(t, 570, tl.Items[1].Travel.EndMinutes)
	assert.Equal(t, 25, *tl.Items[1].Travel.RawResolvedMinutes)
	assert.Equal(t, 720, tl.WorkdayEndMinutes)
	assert.Len(t, tl.Occupancy, 3)
}

func TestTimelineUnknownCrew(t *testing.T) {
	s, _ := newService(t, nil)
	_, err := s.Timeline(context.Background(), "nope", date)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlaceSnapsPastTravel(t *testing.T) {
	s, _ := newService(t, nil)
	res, err := s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DesiredStartMinutes: 545, DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementSnapped, res.Outcome)
	assert.Equal(t, 570, res.StartMinutes)
	assert.Equal(t, 600, res.EndMinutes)
	assert.Equal(t, "TRAVEL", res.Reason)
}

func TestPlaceRejectsOutOfBounds(t *testing.T) {
	s, _ := newService(t, nil)
	res, err := s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DesiredStartMinutes: 700, DurationMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementRejected, res.Outcome)
	assert.Equal(t, "OUT_OF_BOUNDS", res.RejectReason)
	assert.Zero(t, res.StartMinutes)
}

func TestPlaceRejectsDropBeforeWorkdayStart(t *testing.T) {
	s, _ := newServiceWithOptions(t, nil, timeline.Options{WorkdayStartMinutes: 360, WorkdayEndMinutes: 720})
	res, err := s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DesiredStartMinutes: 0, DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementRejected, res.Outcome)
	assert.Equal(t, "OUT_OF_BOUNDS", res.RejectReason)

	res, err = s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DesiredStartMinutes: 360, DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementResolved, res.Outcome)
	assert.Equal(t, 360, res.StartMinutes)
}

func TestPlaceExcludesMovedAssignment(t *testing.T) {
	s, _ := newService(t, nil)
	// Dragging "b" earlier: neither b nor the a->b travel may block it.
	res, err := s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DesiredStartMinutes: 560, DurationMinutes: 60, AssignmentID: "b"})
	require.NoError(t, err)
	assert.Equal(t, model.PlacementResolved, res.Outcome)
	assert.Equal(t, 560, res.StartMinutes)
	for _, iv := range res.Occupancy {
		assert.NotEqual(t, "b", iv.ID)
	}

	_, err = s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DurationMinutes: 30, AssignmentID: "zzz"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlaceRejectsNegativeDuration(t *testing.T) {
	s, _ := newService(t, nil)
	_, err := s.Place(context.Background(), model.PlacementRequest{CrewID: "c1", Date: date, DurationMinutes: -1})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestProviderOutageDegradesToDefault(t *testing.T) {
	down := travel.ProviderFunc(func(context.Context, string, string) (int, bool) { return 0, false })
	s, _ := newService(t, down)
	tl, err := s.Timeline(context.Background(), "c1", date)
	require.NoError(t, err)
	require.Len(t, tl.Items, 3)
	assert.True(t, tl.Items[1].Travel.Defaulted)
	assert.Equal(t, 30, tl.Items[1].Travel.Duration())
}

func TestClearTravelCache(t *testing.T) {
	calls := 0
	prov := travel.ProviderFunc(func(context.Context, string, string) (int, bool) { calls++; return 10, true })
	s, _ := newService(t, prov)
	_, err := s.Timeline(context.Background(), "c1", date)
	require.NoError(t, err)
	_, err = s.Timeline(context.Background(), "c1", date)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.ClearTravelCache(context.Background()))
	_, err = s.Timeline(context.Background(), "c1", date)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
