package occupancy

import (
	"sort"

	"crewtime/internal/model"
)

type Outcome int

const (
	// Resolved: the desired start was already clear.
	Resolved Outcome = iota
	// Snapped: the start was advanced past one or more intervals.
	Snapped
	// Rejected: no placement inside the workday.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Snapped:
		return "snapped"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Reason names what caused a snap or a rejection.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonJob         Reason = "JOB"
	ReasonTravel      Reason = "TRAVEL"
	ReasonOutOfBounds Reason = "OUT_OF_BOUNDS"
)

// Placement is the result of ResolvePlacement. Start is meaningful only when
// Outcome is not Rejected.
type Placement struct {
	Outcome Outcome
	Start   int
	Snapped bool
	// Reason is the kind of the last interval that pushed the start forward,
	// or ReasonOutOfBounds on rejection.
	Reason Reason
}

// ResolvePlacement moves desiredStart forward past every interval the block
// would overlap, visiting intervals in start order, and rejects the drop if
// the block then ends after workdayEnd. The start never moves backward and
// the result never overlaps any interval. It does not look for earlier gaps.
func ResolvePlacement(desiredStart, duration int, intervals []model.OccupiedInterval, workdayEnd int) Placement {
	mustDuration(duration)
	sorted := make([]model.OccupiedInterval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartMinutes < sorted[j].StartMinutes })

	start := desiredStart
	reason := ReasonNone
	for _, iv := range sorted {
		if Overlaps(start, start+duration, iv.StartMinutes, iv.EndMinutes) {
			start = iv.EndMinutes
			reason = reasonFor(iv.Kind)
		}
	}
	if start+duration > workdayEnd {
		return Placement{Outcome: Rejected, Reason: ReasonOutOfBounds}
	}
	if reason == ReasonNone {
		return Placement{Outcome: Resolved, Start: start}
	}
	return Placement{Outcome: Snapped, Start: start, Snapped: true, Reason: reason}
}

func reasonFor(k model.IntervalKind) Reason {
	if k == model.IntervalTravel {
		return ReasonTravel
	}
	return ReasonJob
}
