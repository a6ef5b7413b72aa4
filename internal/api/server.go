package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"crewtime/internal/metrics"
	"crewtime/internal/schedule"
	"crewtime/internal/store"
)

const (
	travelCacheTopic        = "travel-cache"
	eventTravelCacheCleared = "travel.cache.cleared"
)

type Server struct {
	Service *schedule.Service
	Store   store.Store
	Broker  EventBroker
	Logger  zerolog.Logger
	// InstanceID tags broadcasts so an instance skips its own events.
	InstanceID string
}

// NewServer wires the HTTP surface. A nil broker means an in-process one.
func NewServer(svc *schedule.Service, st store.Store, broker EventBroker, logger zerolog.Logger) *Server {
	if broker == nil {
		broker = NewBroker()
	}
	return &Server{
		Service:    svc,
		Store:      st,
		Broker:     broker,
		Logger:     logger.With().Str("component", "api").Logger(),
		InstanceID: uuid.NewString(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.observe)

	r.Get("/healthz", s.HealthHandler)
	r.Get("/readyz", s.ReadyHandler)
	r.Get("/debug/info", s.DebugInfoHandler)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/crews/{crewId}/timeline", s.TimelineHandler)
		r.Post("/crews/{crewId}/placement", s.PlacementHandler)
		r.Get("/crews/{crewId}/placement/ws", s.PlacementWSHandler)
		r.Post("/admin/travel-cache/clear", s.ClearTravelCacheHandler)
	})
	return r
}

// SyncTravelCache clears the local travel cache whenever another instance
// broadcasts a clear. It returns when ctx is done.
func (s *Server) SyncTravelCache(ctx context.Context) {
	ch := s.Broker.Subscribe(travelCacheTopic)
	defer s.Broker.Unsubscribe(travelCacheTopic, ch)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if evt.Type != eventTravelCacheCleared {
				continue
			}
			origin, _ := evt.Data["origin"].(string)
			if origin == s.InstanceID {
				continue
			}
			s.Service.ClearLocalTravelCache()
			s.Logger.Info().Str("origin", origin).Msg("travel cache cleared by peer")
		}
	}
}
