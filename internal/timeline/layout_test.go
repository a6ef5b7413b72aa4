package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"crewtime/internal/grid"
	"crewtime/internal/model"
	"crewtime/internal/travel"
)

const (
	crew = "c1"
	day  = "2025-03-03"
)

func job(id string, start, end int) model.Assignment {
	return model.Assignment{ID: id, CrewID: crew, Date: day, StartMinutes: start, EndMinutes: end, Address: "addr-" + id}
}

func travelBlocks(items []model.TimelineItem) []model.TravelBlock {
	var out []model.TravelBlock
	for _, it := range items {
		if it.Type == model.ItemTravel {
			out = append(out, *it.Travel)
		}
	}
	return out
}

func layout(as []model.Assignment, lookup travel.Lookup) []model.TimelineItem {
	return Layout(crew, day, SortAssignments(as), lookup, Options{})
}

func TestGapIsClampedToNextJob(t *testing.T) {
	items := layout([]model.Assignment{job("a", 0, 60), job("b", 80, 140)}, travel.MapLookup{})
	blocks := travelBlocks(items)
	if len(blocks) != 1 {
		t.Fatalf("want 1 travel block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.StartMinutes != 60 || b.EndMinutes != 80 {
		t.Fatalf("block = [%d,%d), want [60,80)", b.StartMinutes, b.EndMinutes)
	}
	if !b.Defaulted || b.RawResolvedMinutes != nil || b.QuantizedMinutes != 30 {
		t.Fatalf("unexpected defaulted block %+v", b)
	}
	if b.Kind != model.TravelBetween || b.SourceAssignmentID != "a" || b.TargetAssignmentID != "b" || b.ID != "travel:a:b" {
		t.Fatalf("unexpected block identity %+v", b)
	}
}

func TestGapBelowRenderThresholdEmitsNothing(t *testing.T) {
	items := layout([]model.Assignment{job("a", 0, 60), job("b", 70, 140)}, travel.MapLookup{})
	if n := len(travelBlocks(items)); n != 0 {
		t.Fatalf("want no travel, got %d", n)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
}

func TestBackToBackAndOverlappingEmitNothing(t *testing.T) {
	for _, as := range [][]model.Assignment{
		{job("a", 0, 60), job("b", 60, 120)},
		{job("a", 0, 90), job("b", 60, 120)},
	} {
		if n := len(travelBlocks(layout(as, travel.MapLookup{}))); n != 0 {
			t.Fatalf("want no travel, got %d", n)
		}
	}
}

func TestResolvedDurationIsQuantizedAndRawKept(t *testing.T) {
	lookup := travel.MapLookup{travel.BetweenKey(crew, day, "a", "b"): 16}
	blocks := travelBlocks(layout([]model.Assignment{job("a", 0, 60), job("b", 120, 180)}, lookup))
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.StartMinutes != 60 || b.EndMinutes != 90 {
		t.Fatalf("block = [%d,%d), want [60,90)", b.StartMinutes, b.EndMinutes)
	}
	if b.RawResolvedMinutes == nil || *b.RawResolvedMinutes != 16 || b.QuantizedMinutes != 30 || b.Defaulted {
		t.Fatalf("raw/quantized not retained: %+v", b)
	}
}

func TestZeroResolvedDurationEmitsNothing(t *testing.T) {
	lookup := travel.MapLookup{travel.BetweenKey(crew, day, "a", "b"): 0}
	if n := len(travelBlocks(layout([]model.Assignment{job("a", 0, 60), job("b", 120, 180)}, lookup))); n != 0 {
		t.Fatalf("want no travel, got %d", n)
	}
}

func TestHomeBaseStart(t *testing.T) {
	a := job("a", 60, 120)
	a.StartsAtHomeBase = true
	lookup := travel.MapLookup{travel.HomeBaseKey("a", travel.ToJob): 20}
	items := layout([]model.Assignment{a}, lookup)
	if len(items) != 2 || items[0].Type != model.ItemTravel {
		t.Fatalf("want travel then job, got %+v", items)
	}
	b := items[0].Travel
	if b.Kind != model.TravelHomeBaseStart || b.StartMinutes != 30 || b.EndMinutes != 60 || b.TargetAssignmentID != "a" {
		t.Fatalf("unexpected home start block %+v", b)
	}

	// Clamped at the workday start and then too short to render.
	a.StartMinutes, a.EndMinutes = 10, 70
	if n := len(travelBlocks(layout([]model.Assignment{a}, lookup))); n != 0 {
		t.Fatalf("want no travel, got %d", n)
	}
}

func TestHomeBaseStartDoesNotReachIntoPreviousJob(t *testing.T) {
	b := job("b", 100, 160)
	b.StartsAtHomeBase = true
	items := layout([]model.Assignment{job("a", 0, 80), b}, travel.MapLookup{})
	blocks := travelBlocks(items)
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	if blocks[0].StartMinutes != 80 || blocks[0].EndMinutes != 100 {
		t.Fatalf("block = [%d,%d), want [80,100)", blocks[0].StartMinutes, blocks[0].EndMinutes)
	}
}

func TestTrailingHomeBaseEndClampedToWorkday(t *testing.T) {
	a := job("a", 600, 705)
	a.EndsAtHomeBase = true
	blocks := travelBlocks(layout([]model.Assignment{a}, travel.MapLookup{}))
	if len(blocks) != 1 || blocks[0].StartMinutes != 705 || blocks[0].EndMinutes != 720 {
		t.Fatalf("want [705,720), got %+v", blocks)
	}
	if blocks[0].Kind != model.TravelHomeBaseEnd || blocks[0].SourceAssignmentID != "a" {
		t.Fatalf("unexpected block %+v", blocks[0])
	}

	a.EndMinutes = 710
	if n := len(travelBlocks(layout([]model.Assignment{a}, travel.MapLookup{}))); n != 0 {
		t.Fatalf("want no travel past the workday, got %d", n)
	}
}

func TestSharedGapEndTakesPriority(t *testing.T) {
	a := job("a", 0, 60)
	a.EndsAtHomeBase = true
	b := job("b", 120, 180)
	b.StartsAtHomeBase = true
	lookup := travel.MapLookup{
		travel.HomeBaseKey("a", travel.ToHome): 40, // 45 on the grid
		travel.HomeBaseKey("b", travel.ToJob):  30,
	}
	items := layout([]model.Assignment{a, b}, lookup)
	blocks := travelBlocks(items)
	if len(blocks) != 2 {
		t.Fatalf("want 2 blocks, got %+v", blocks)
	}
	end, start := blocks[0], blocks[1]
	if end.Kind != model.TravelHomeBaseEnd || end.StartMinutes != 60 || end.EndMinutes != 105 {
		t.Fatalf("end block = %+v", end)
	}
	if start.Kind != model.TravelHomeBaseStart || start.StartMinutes != 105 || start.EndMinutes != 120 {
		t.Fatalf("start block = %+v", start)
	}
	if len(items) != 4 {
		t.Fatalf("home start for b emitted twice: %d items", len(items))
	}
}

func TestSharedGapBothFit(t *testing.T) {
	a := job("a", 0, 60)
	a.EndsAtHomeBase = true
	b := job("b", 120, 180)
	b.StartsAtHomeBase = true
	lookup := travel.MapLookup{
		travel.HomeBaseKey("a", travel.ToHome): 15,
		travel.HomeBaseKey("b", travel.ToJob):  10,
	}
	blocks := travelBlocks(layout([]model.Assignment{a, b}, lookup))
	if len(blocks) != 2 {
		t.Fatalf("want 2 blocks, got %+v", blocks)
	}
	if blocks[0].StartMinutes != 60 || blocks[0].EndMinutes != 75 {
		t.Fatalf("end block = %+v", blocks[0])
	}
	if blocks[1].StartMinutes != 105 || blocks[1].EndMinutes != 120 {
		t.Fatalf("start block = %+v", blocks[1])
	}
}

func TestHomeBaseEndBeforeOrdinaryNext(t *testing.T) {
	a := job("a", 0, 60)
	a.EndsAtHomeBase = true
	blocks := travelBlocks(layout([]model.Assignment{a, job("b", 80, 140)}, travel.MapLookup{}))
	if len(blocks) != 1 || blocks[0].Kind != model.TravelHomeBaseEnd || blocks[0].EndMinutes != 80 {
		t.Fatalf("want home end clamped to [60,80), got %+v", blocks)
	}
}

func TestFitSharedGap(t *testing.T) {
	cases := []struct {
		gap, end, start, wantEnd, wantStart int
	}{
		{60, 45, 30, 45, 15},
		{60, 15, 15, 15, 15},
		{60, 90, 30, 60, 0},
		{0, 30, 30, 0, 0},
		{-10, 30, 30, 0, 0},
		{60, 0, 30, 0, 30},
	}
	for _, c := range cases {
		e, s := FitSharedGap(c.gap, c.end, c.start)
		if e != c.wantEnd || s != c.wantStart {
			t.Errorf("FitSharedGap(%d,%d,%d) = (%d,%d), want (%d,%d)", c.gap, c.end, c.start, e, s, c.wantEnd, c.wantStart)
		}
		if e+s > max(c.gap, 0) {
			t.Errorf("FitSharedGap(%d,...) overfills the gap", c.gap)
		}
	}
}

func TestSortIsStableForTies(t *testing.T) {
	sorted := SortAssignments([]model.Assignment{job("z", 60, 60), job("y", 0, 30), job("x", 60, 60)})
	got := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	if fmt.Sprint(got) != "[y z x]" {
		t.Fatalf("order = %v", got)
	}
}

func TestSortPanicsOnInvertedAssignment(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	SortAssignments([]model.Assignment{job("a", 60, 30)})
}

func TestLayoutIsIdempotent(t *testing.T) {
	a := job("a", 60, 120)
	a.StartsAtHomeBase = true
	c := job("c", 300, 420)
	c.EndsAtHomeBase = true
	as := []model.Assignment{c, job("b", 150, 240), a}
	lookup := travel.MapLookup{travel.BetweenKey(crew, day, "a", "b"): 22}

	first, _ := json.Marshal(layout(as, lookup))
	second, _ := json.Marshal(layout(as, lookup))
	if string(first) != string(second) {
		t.Fatalf("layout not deterministic:\n%s\n%s", first, second)
	}
}

func TestNoOverlapInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 500; round++ {
		var as []model.Assignment
		lookup := travel.MapLookup{}
		cursor := rng.Intn(4) * 15
		for i := 0; cursor < 700; i++ {
			length := (1 + rng.Intn(8)) * 15
			a := job(fmt.Sprintf("j%d", i), cursor, cursor+length)
			a.StartsAtHomeBase = rng.Intn(3) == 0
			a.EndsAtHomeBase = rng.Intn(3) == 0
			as = append(as, a)
			cursor += length + rng.Intn(6)*15
			if rng.Intn(2) == 0 {
				lookup[travel.HomeBaseKey(a.ID, travel.ToJob)] = rng.Intn(90)
				lookup[travel.HomeBaseKey(a.ID, travel.ToHome)] = rng.Intn(90)
			}
		}
		for i := 0; i+1 < len(as); i++ {
			if rng.Intn(2) == 0 {
				lookup[travel.BetweenKey(crew, day, as[i].ID, as[i+1].ID)] = rng.Intn(90)
			}
		}
		rng.Shuffle(len(as), func(i, j int) { as[i], as[j] = as[j], as[i] })

		occ := Occupancy(layout(as, lookup))
		if !sort.SliceIsSorted(occ, func(i, j int) bool { return occ[i].StartMinutes < occ[j].StartMinutes }) {
			t.Fatalf("round %d: occupancy out of order: %+v", round, occ)
		}
		for i := range occ {
			if occ[i].Kind == model.IntervalTravel {
				if d := occ[i].EndMinutes - occ[i].StartMinutes; d < MinTravelRenderMinutes {
					t.Fatalf("round %d: travel block below threshold: %+v", round, occ[i])
				}
				if !grid.Aligned(occ[i].StartMinutes) || !grid.Aligned(occ[i].EndMinutes) {
					t.Fatalf("round %d: travel block off grid: %+v", round, occ[i])
				}
				if occ[i].EndMinutes > DefaultWorkdayEndMinutes && i == len(occ)-1 {
					t.Fatalf("round %d: trailing travel past workday: %+v", round, occ[i])
				}
			}
			for j := i + 1; j < len(occ); j++ {
				a, b := occ[i], occ[j]
				if a.StartMinutes < b.EndMinutes && a.EndMinutes > b.StartMinutes {
					t.Fatalf("round %d: %+v overlaps %+v", round, a, b)
				}
			}
		}
	}
}

func TestBuilderResolvesLegsAndFlagsDefaults(t *testing.T) {
	calls := map[string]int{}
	prov := travel.ProviderFunc(func(_ context.Context, origin, destination string) (int, bool) {
		calls[origin+">"+destination]++
		if destination == "addr-c" {
			return 0, false
		}
		return 20, true
	})
	r := travel.NewResolver(travel.NewCache(), prov, travel.WithConcurrency(1))
	b := NewBuilder(r, Options{}, zerolog.Nop())

	a := job("a", 60, 120)
	a.StartsAtHomeBase = true
	other := job("x", 0, 30)
	other.CrewID = "c2"
	items := b.Build(context.Background(), model.Crew{ID: crew, HomeBase: "hq"},
		day, []model.Assignment{job("c", 200, 260), a, job("b", 150, 180), other})

	blocks := travelBlocks(items)
	if len(blocks) != 3 {
		t.Fatalf("want 3 travel blocks, got %+v", blocks)
	}
	if blocks[0].Kind != model.TravelHomeBaseStart || blocks[0].Defaulted {
		t.Fatalf("home start = %+v", blocks[0])
	}
	if blocks[1].ID != "travel:a:b" || blocks[1].EndMinutes != 150 {
		t.Fatalf("a->b = %+v", blocks[1])
	}
	if blocks[2].ID != "travel:b:c" || !blocks[2].Defaulted || blocks[2].EndMinutes != 200 {
		t.Fatalf("b->c = %+v", blocks[2])
	}
	if calls["hq>addr-a"] != 1 || calls["addr-a>addr-b"] != 1 || calls["addr-b>addr-c"] != 1 {
		t.Fatalf("unexpected provider calls %v", calls)
	}
	for _, it := range items {
		if it.Type == model.ItemJob && it.Assignment.CrewID != crew {
			t.Fatalf("foreign assignment leaked into timeline")
		}
	}

	// A rebuild is served from the cache.
	b.Build(context.Background(), model.Crew{ID: crew, HomeBase: "hq"}, day, []model.Assignment{a, job("b", 150, 180), job("c", 200, 260)})
	if calls["addr-a>addr-b"] != 1 {
		t.Fatalf("rebuild called the provider again: %v", calls)
	}
}
