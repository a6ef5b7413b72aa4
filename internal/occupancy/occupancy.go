// Package occupancy answers overlap questions against a crew's occupied
// intervals and snaps dropped blocks forward past them. Job and travel
// intervals are treated alike.
package occupancy

import (
	"fmt"

	"crewtime/internal/model"
)

// Overlaps reports whether the half-open spans [aStart,aEnd) and
// [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// IsPlacementValid reports whether [start, start+duration) is clear of every
// interval. It never modifies its input.
func IsPlacementValid(start, duration int, intervals []model.OccupiedInterval) bool {
	_, conflict := FirstConflict(start, duration, intervals)
	return !conflict
}

// FirstConflict returns the first interval, in slice order, that
// [start, start+duration) overlaps.
func FirstConflict(start, duration int, intervals []model.OccupiedInterval) (model.OccupiedInterval, bool) {
	mustDuration(duration)
	end := start + duration
	for _, iv := range intervals {
		if Overlaps(start, end, iv.StartMinutes, iv.EndMinutes) {
			return iv, true
		}
	}
	return model.OccupiedInterval{}, false
}

func mustDuration(d int) {
	if d < 0 {
		panic(fmt.Sprintf("occupancy: negative duration %d", d))
	}
}
