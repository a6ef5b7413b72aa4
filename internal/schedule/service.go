// Package schedule answers timeline and placement questions for one crew and
// day, reading assignments from the scheduling store.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"crewtime/internal/metrics"
	"crewtime/internal/model"
	"crewtime/internal/occupancy"
	"crewtime/internal/store"
	"crewtime/internal/timeline"
	"crewtime/internal/travel"
)

var ErrInvalidRequest = errors.New("invalid request")

type Service struct {
	store    store.Store
	builder  *timeline.Builder
	resolver *travel.Resolver
	logger   zerolog.Logger
}

func New(st store.Store, resolver *travel.Resolver, opts timeline.Options, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		builder:  timeline.NewBuilder(resolver, opts, logger),
		resolver: resolver,
		logger:   logger.With().Str("component", "schedule").Logger(),
	}
}

// Workday returns the configured day bounds in minutes from the reference.
func (s *Service) Workday() (start, end int) {
	o := s.builder.Options()
	return o.WorkdayStartMinutes, o.WorkdayEndMinutes
}

// Timeline builds the crew's day.
func (s *Service) Timeline(ctx context.Context, crewID, date string) (model.DayTimeline, error) {
	crew, as, err := s.load(ctx, crewID, date)
	if err != nil {
		return model.DayTimeline{}, err
	}
	items := s.builder.Build(ctx, crew, date, as)
	start, end := s.Workday()
	return model.DayTimeline{
		CrewID:              crewID,
		Date:                date,
		WorkdayStartMinutes: start,
		WorkdayEndMinutes:   end,
		Items:               items,
		Occupancy:           timeline.Occupancy(items),
	}, nil
}

// Place resolves a drop. When req.AssignmentID names an assignment of the
// day, the occupancy is rebuilt without it so a job never blocks itself.
func (s *Service) Place(ctx context.Context, req model.PlacementRequest) (model.PlacementResult, error) {
	if req.DurationMinutes < 0 {
		return model.PlacementResult{}, fmt.Errorf("%w: negative duration", ErrInvalidRequest)
	}
	crew, as, err := s.load(ctx, req.CrewID, req.Date)
	if err != nil {
		return model.PlacementResult{}, err
	}
	if req.AssignmentID != "" {
		kept := as[:0]
		found := false
		for _, a := range as {
			if a.ID == req.AssignmentID {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		if !found {
			return model.PlacementResult{}, fmt.Errorf("assignment %s: %w", req.AssignmentID, store.ErrNotFound)
		}
		as = kept
	}

	occ := timeline.Occupancy(s.builder.Build(ctx, crew, req.Date, as))
	workdayStart, workdayEnd := s.Workday()
	var p occupancy.Placement
	if req.DesiredStartMinutes < workdayStart {
		// snapping only moves forward, so nothing can pull the drop into the day
		p = occupancy.Placement{Outcome: occupancy.Rejected, Reason: occupancy.ReasonOutOfBounds}
	} else {
		p = occupancy.ResolvePlacement(req.DesiredStartMinutes, req.DurationMinutes, occ, workdayEnd)
	}
	metrics.Placements.WithLabelValues(p.Outcome.String()).Inc()

	res := model.PlacementResult{Occupancy: occ, Snapped: p.Snapped}
	switch p.Outcome {
	case occupancy.Rejected:
		res.Outcome = model.PlacementRejected
		res.RejectReason = string(p.Reason)
	case occupancy.Snapped:
		res.Outcome = model.PlacementSnapped
		res.Reason = string(p.Reason)
		res.StartMinutes, res.EndMinutes = p.Start, p.Start+req.DurationMinutes
	default:
		res.Outcome = model.PlacementResolved
		res.StartMinutes, res.EndMinutes = p.Start, p.Start+req.DurationMinutes
	}
	s.logger.Debug().
		Str("crew", req.CrewID).
		Str("date", req.Date).
		Int("desired", req.DesiredStartMinutes).
		Int("duration", req.DurationMinutes).
		Str("outcome", string(res.Outcome)).
		Int("start", res.StartMinutes).
		Msg("placement resolved")
	return res, nil
}

// ClearTravelCache drops every cached travel duration.
func (s *Service) ClearTravelCache(ctx context.Context) error {
	return s.resolver.Clear(ctx)
}

// TravelCacheEntries reports how many durations this process has cached.
func (s *Service) TravelCacheEntries() int {
	return s.resolver.Cache().Len()
}

// ClearLocalTravelCache drops only this process's cache.
func (s *Service) ClearLocalTravelCache() {
	s.resolver.Cache().Clear()
}

func (s *Service) load(ctx context.Context, crewID, date string) (model.Crew, []model.Assignment, error) {
	crew, err := s.store.GetCrew(ctx, crewID)
	if err != nil {
		return model.Crew{}, nil, fmt.Errorf("crew %s: %w", crewID, err)
	}
	as, err := s.store.ListAssignments(ctx, crewID, date)
	if err != nil {
		return model.Crew{}, nil, fmt.Errorf("assignments for %s on %s: %w", crewID, date, err)
	}
	return crew, as, nil
}
