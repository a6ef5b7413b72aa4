package model

// Core scheduling types. All times are minutes from the workday reference
// (minute 0 is the start of the crew's working day).

// Assignment is a booked job for one crew on one day. It is owned by the
// scheduling store and treated as read-only here.
type Assignment struct {
	ID               string `json:"id" yaml:"id"`
	CrewID           string `json:"crewId" yaml:"crewId"`
	Date             string `json:"date" yaml:"date"` // YYYY-MM-DD, crew-local
	StartMinutes     int    `json:"startMinutes" yaml:"startMinutes"`
	EndMinutes       int    `json:"endMinutes" yaml:"endMinutes"`
	StartsAtHomeBase bool   `json:"startsAtHomeBase,omitempty" yaml:"startsAtHomeBase"`
	EndsAtHomeBase   bool   `json:"endsAtHomeBase,omitempty" yaml:"endsAtHomeBase"`
	Address          string `json:"address,omitempty" yaml:"address"`
	Label            string `json:"label,omitempty" yaml:"label"`
}

// Duration returns the booked length in minutes.
func (a Assignment) Duration() int { return a.EndMinutes - a.StartMinutes }

// Crew is a field crew. HomeBase is an opaque location descriptor; empty means
// home-base legs fall back to the default travel duration.
type Crew struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name"`
	HomeBase string `json:"homeBase,omitempty" yaml:"homeBase"`
}

type TravelKind string

const (
	TravelBetween       TravelKind = "between"
	TravelHomeBaseStart TravelKind = "home_base_start"
	TravelHomeBaseEnd   TravelKind = "home_base_end"
)

// TravelBlock is derived travel time. It is never persisted.
type TravelBlock struct {
	ID                 string     `json:"id"`
	CrewID             string     `json:"crewId"`
	Date               string     `json:"date"`
	StartMinutes       int        `json:"startMinutes"`
	EndMinutes         int        `json:"endMinutes"`
	SourceAssignmentID string     `json:"sourceAssignmentId,omitempty"`
	TargetAssignmentID string     `json:"targetAssignmentId,omitempty"`
	Kind               TravelKind `json:"kind"`
	// RawResolvedMinutes is the provider value before quantization; nil when
	// the default duration was used.
	RawResolvedMinutes *int `json:"rawResolvedMinutes,omitempty"`
	QuantizedMinutes   int  `json:"quantizedMinutes"`
	Defaulted          bool `json:"defaulted,omitempty"`
}

// Duration returns the rendered span, which may be shorter than
// QuantizedMinutes when the block was clamped to a gap.
func (b TravelBlock) Duration() int { return b.EndMinutes - b.StartMinutes }

type IntervalKind string

const (
	IntervalJob    IntervalKind = "job"
	IntervalTravel IntervalKind = "travel"
)

// OccupiedInterval is the half-open span [StartMinutes, EndMinutes) taken by
// a job or a travel block.
type OccupiedInterval struct {
	Kind         IntervalKind `json:"kind"`
	ID           string       `json:"id"`
	StartMinutes int          `json:"startMinutes"`
	EndMinutes   int          `json:"endMinutes"`
}

type ItemType string

const (
	ItemJob    ItemType = "job"
	ItemTravel ItemType = "travel"
)

// TimelineItem is either a job block or a travel block. Exactly one of
// Assignment and Travel is set.
type TimelineItem struct {
	Type       ItemType     `json:"type"`
	Assignment *Assignment  `json:"assignment,omitempty"`
	Travel     *TravelBlock `json:"travel,omitempty"`
}

func JobItem(a Assignment) TimelineItem {
	return TimelineItem{Type: ItemJob, Assignment: &a}
}

func TravelItem(b TravelBlock) TimelineItem {
	return TimelineItem{Type: ItemTravel, Travel: &b}
}

// Interval returns the occupied span of the item.
func (it TimelineItem) Interval() OccupiedInterval {
	if it.Type == ItemTravel {
		return OccupiedInterval{Kind: IntervalTravel, ID: it.Travel.ID, StartMinutes: it.Travel.StartMinutes, EndMinutes: it.Travel.EndMinutes}
	}
	return OccupiedInterval{Kind: IntervalJob, ID: it.Assignment.ID, StartMinutes: it.Assignment.StartMinutes, EndMinutes: it.Assignment.EndMinutes}
}

// DayTimeline is the rendered view of one crew's day.
type DayTimeline struct {
	CrewID              string             `json:"crewId"`
	Date                string             `json:"date"`
	WorkdayStartMinutes int                `json:"workdayStartMinutes"`
	WorkdayEndMinutes   int                `json:"workdayEndMinutes"`
	Items               []TimelineItem     `json:"items"`
	Occupancy           []OccupiedInterval `json:"occupancy"`
}

// PlacementRequest asks where a dragged block of DurationMinutes would land
// when dropped at DesiredStartMinutes.
type PlacementRequest struct {
	CrewID              string `json:"crewId"`
	Date                string `json:"date"`
	DesiredStartMinutes int    `json:"desiredStartMinutes"`
	DurationMinutes     int    `json:"durationMinutes"`
	// AssignmentID names an existing assignment being moved; it and the
	// travel derived from it are left out of the occupancy.
	AssignmentID string `json:"assignmentId,omitempty"`
}

type PlacementOutcome string

const (
	PlacementResolved PlacementOutcome = "resolved"
	PlacementSnapped  PlacementOutcome = "snapped"
	PlacementRejected PlacementOutcome = "rejected"
)

// PlacementResult is the answer to a PlacementRequest.
type PlacementResult struct {
	Outcome      PlacementOutcome   `json:"outcome"`
	StartMinutes int                `json:"startMinutes"`
	EndMinutes   int                `json:"endMinutes"`
	Snapped      bool               `json:"snapped"`
	Reason       string             `json:"reason,omitempty"` // TRAVEL or JOB
	RejectReason string             `json:"rejectReason,omitempty"`
	Occupancy    []OccupiedInterval `json:"occupancy"`
}
