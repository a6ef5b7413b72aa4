package timeline

import (
	"context"

	"github.com/rs/zerolog"

	"crewtime/internal/metrics"
	"crewtime/internal/model"
	"crewtime/internal/travel"
)

// Builder resolves the travel legs a crew's day needs and lays the day out.
// Resolution is the only step that performs I/O.
type Builder struct {
	resolver *travel.Resolver
	opts     Options
	logger   zerolog.Logger
}

func NewBuilder(resolver *travel.Resolver, opts Options, logger zerolog.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("component", "timeline_builder").Logger(),
	}
}

// Options returns the effective layout bounds.
func (b *Builder) Options() Options { return b.opts }

// Build lays out crew's day. Assignments for other crews or dates are
// ignored. Provider trouble never fails a build; affected legs use the
// default duration and are logged.
func (b *Builder) Build(ctx context.Context, crew model.Crew, date string, assignments []model.Assignment) []model.TimelineItem {
	day := GroupByCrewDay(assignments)[DayKey{CrewID: crew.ID, Date: date}]
	sorted := SortAssignments(day)
	if pairs := Legs(crew, date, sorted, b.opts); len(pairs) > 0 {
		b.resolver.Resolve(ctx, pairs)
	}
	items := Layout(crew.ID, date, sorted, b.resolver.Cache(), b.opts)
	for _, it := range items {
		if it.Type != model.ItemTravel || !it.Travel.Defaulted {
			continue
		}
		metrics.TravelDefaults.WithLabelValues(string(it.Travel.Kind)).Inc()
		b.logger.Warn().
			Str("crew", crew.ID).
			Str("date", date).
			Str("block", it.Travel.ID).
			Int("minutes", travel.DefaultTravelDurationMinutes).
			Msg("travel duration unresolved, using default")
	}
	return items
}
