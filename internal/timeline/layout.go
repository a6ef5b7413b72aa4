// Package timeline lays out one crew's day: job blocks interleaved with the
// travel blocks derived from them.
package timeline

import (
	"fmt"
	"sort"

	"crewtime/internal/grid"
	"crewtime/internal/model"
	"crewtime/internal/travel"
)

const (
	// MinTravelRenderMinutes is the shortest travel block ever emitted.
	MinTravelRenderMinutes = 15
	// DefaultWorkdayEndMinutes is a 12 hour day from the reference.
	DefaultWorkdayEndMinutes = 720
)

// Options bound the layout. Zero values take the package defaults.
type Options struct {
	WorkdayStartMinutes int
	WorkdayEndMinutes   int
	MinRenderMinutes    int
}

func (o Options) withDefaults() Options {
	if o.WorkdayEndMinutes <= 0 {
		o.WorkdayEndMinutes = DefaultWorkdayEndMinutes
	}
	if o.MinRenderMinutes <= 0 {
		o.MinRenderMinutes = MinTravelRenderMinutes
	}
	return o
}

// DayKey groups assignments by crew and calendar day.
type DayKey struct {
	CrewID string
	Date   string
}

// GroupByCrewDay buckets assignments, keeping input order inside a bucket.
func GroupByCrewDay(as []model.Assignment) map[DayKey][]model.Assignment {
	out := map[DayKey][]model.Assignment{}
	for _, a := range as {
		k := DayKey{CrewID: a.CrewID, Date: a.Date}
		out[k] = append(out[k], a)
	}
	return out
}

// SortAssignments returns a copy ordered by start. Ties keep input order.
// An assignment ending before it starts is a caller bug and panics.
func SortAssignments(as []model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(as))
	copy(out, as)
	for _, a := range out {
		if a.EndMinutes < a.StartMinutes {
			panic(fmt.Sprintf("timeline: assignment %s ends (%d) before it starts (%d)", a.ID, a.EndMinutes, a.StartMinutes))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMinutes < out[j].StartMinutes })
	return out
}

// Legs lists every travel leg Layout may read for a sorted day.
func Legs(crew model.Crew, date string, sorted []model.Assignment, opts Options) []travel.Pair {
	opts = opts.withDefaults()
	var pairs []travel.Pair
	for i, cur := range sorted {
		if cur.StartsAtHomeBase {
			pairs = append(pairs, travel.Pair{Key: travel.HomeBaseKey(cur.ID, travel.ToJob), Origin: crew.HomeBase, Destination: cur.Address})
		}
		if cur.EndsAtHomeBase {
			pairs = append(pairs, travel.Pair{Key: travel.HomeBaseKey(cur.ID, travel.ToHome), Origin: cur.Address, Destination: crew.HomeBase})
			continue
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if !next.StartsAtHomeBase && next.StartMinutes-cur.EndMinutes >= opts.MinRenderMinutes {
				pairs = append(pairs, travel.Pair{Key: travel.BetweenKey(crew.ID, date, cur.ID, next.ID), Origin: cur.Address, Destination: next.Address})
			}
		}
	}
	return pairs
}

// leg is a quantized duration read from a Lookup.
type leg struct {
	raw       *int
	quantized int
	defaulted bool
}

func readLeg(lookup travel.Lookup, k travel.Key) leg {
	if m, ok := lookup.Lookup(k); ok {
		raw := m
		return leg{raw: &raw, quantized: grid.Quantize(m)}
	}
	return leg{quantized: grid.Quantize(travel.DefaultTravelDurationMinutes), defaulted: true}
}

// Layout interleaves a sorted day's jobs with travel blocks. It is pure:
// durations come from lookup, and anything missing there is the default.
// The same inputs always yield the same items.
func Layout(crewID, date string, sorted []model.Assignment, lookup travel.Lookup, opts Options) []model.TimelineItem {
	opts = opts.withDefaults()
	items := make([]model.TimelineItem, 0, len(sorted)*2)
	emit := func(b model.TravelBlock, l leg) {
		if b.EndMinutes-b.StartMinutes < opts.MinRenderMinutes {
			return
		}
		b.CrewID, b.Date = crewID, date
		b.RawResolvedMinutes = l.raw
		b.QuantizedMinutes = l.quantized
		b.Defaulted = l.defaulted
		items = append(items, model.TravelItem(b))
	}

	startDone := false
	for i, cur := range sorted {
		var next *model.Assignment
		if i+1 < len(sorted) {
			next = &sorted[i+1]
		}

		if cur.StartsAtHomeBase && !startDone {
			l := readLeg(lookup, travel.HomeBaseKey(cur.ID, travel.ToJob))
			floor := opts.WorkdayStartMinutes
			if i > 0 {
				floor = max(floor, sorted[i-1].EndMinutes)
			}
			emit(model.TravelBlock{
				ID:                 homeStartID(cur.ID),
				StartMinutes:       max(floor, cur.StartMinutes-l.quantized),
				EndMinutes:         cur.StartMinutes,
				TargetAssignmentID: cur.ID,
				Kind:               model.TravelHomeBaseStart,
			}, l)
		}
		startDone = false

		items = append(items, model.JobItem(cur))

		switch {
		case cur.EndsAtHomeBase && next == nil:
			l := readLeg(lookup, travel.HomeBaseKey(cur.ID, travel.ToHome))
			emit(model.TravelBlock{
				ID:                 homeEndID(cur.ID),
				StartMinutes:       cur.EndMinutes,
				EndMinutes:         min(cur.EndMinutes+l.quantized, opts.WorkdayEndMinutes),
				SourceAssignmentID: cur.ID,
				Kind:               model.TravelHomeBaseEnd,
			}, l)

		case cur.EndsAtHomeBase:
			gap := next.StartMinutes - cur.EndMinutes
			endLeg := readLeg(lookup, travel.HomeBaseKey(cur.ID, travel.ToHome))
			var startLeg leg
			startQuantized := 0
			if next.StartsAtHomeBase {
				startLeg = readLeg(lookup, travel.HomeBaseKey(next.ID, travel.ToJob))
				startQuantized = startLeg.quantized
			}
			endSpan, startSpan := FitSharedGap(gap, endLeg.quantized, startQuantized)
			emit(model.TravelBlock{
				ID:                 homeEndID(cur.ID),
				StartMinutes:       cur.EndMinutes,
				EndMinutes:         cur.EndMinutes + endSpan,
				SourceAssignmentID: cur.ID,
				Kind:               model.TravelHomeBaseEnd,
			}, endLeg)
			if next.StartsAtHomeBase {
				emit(model.TravelBlock{
					ID:                 homeStartID(next.ID),
					StartMinutes:       next.StartMinutes - startSpan,
					EndMinutes:         next.StartMinutes,
					TargetAssignmentID: next.ID,
					Kind:               model.TravelHomeBaseStart,
				}, startLeg)
				startDone = true
			}

		case next != nil && !next.StartsAtHomeBase:
			gap := next.StartMinutes - cur.EndMinutes
			if gap < opts.MinRenderMinutes {
				continue
			}
			l := readLeg(lookup, travel.BetweenKey(crewID, date, cur.ID, next.ID))
			emit(model.TravelBlock{
				ID:                 betweenID(cur.ID, next.ID),
				StartMinutes:       cur.EndMinutes,
				EndMinutes:         cur.EndMinutes + min(l.quantized, gap),
				SourceAssignmentID: cur.ID,
				TargetAssignmentID: next.ID,
				Kind:               model.TravelBetween,
			}, l)
		}
	}
	return items
}

func betweenID(from, to string) string { return "travel:" + from + ":" + to }
func homeStartID(id string) string     { return "travel:home_start:" + id }
func homeEndID(id string) string       { return "travel:home_end:" + id }

// Occupancy projects items onto occupied intervals, in timeline order.
func Occupancy(items []model.TimelineItem) []model.OccupiedInterval {
	out := make([]model.OccupiedInterval, 0, len(items))
	for _, it := range items {
		out = append(out, it.Interval())
	}
	return out
}
