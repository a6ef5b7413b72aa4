package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crewtime/internal/buildinfo"
	"crewtime/internal/model"
	"crewtime/internal/schedule"
	"crewtime/internal/store"
)

// TimelineHandler handles GET /v1/crews/{crewId}/timeline?date=
func (s *Server) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if err := validateDate(date); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
		return
	}
	tl, err := s.Service.Timeline(r.Context(), chi.URLParam(r, "crewId"), date)
	if err != nil {
		s.writeServiceError(w, r, "Timeline failed", err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// PlacementHandler handles POST /v1/crews/{crewId}/placement. Rejected
// placements are a normal answer, not an error status.
func (s *Server) PlacementHandler(w http.ResponseWriter, r *http.Request) {
	var req model.PlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	req.CrewID = chi.URLParam(r, "crewId")
	if err := validatePlacementRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
		return
	}
	res, err := s.Service.Place(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Placement failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClearTravelCacheHandler handles POST /v1/admin/travel-cache/clear and tells
// peer instances to drop their local caches too.
func (s *Server) ClearTravelCacheHandler(w http.ResponseWriter, r *http.Request) {
	entries := s.Service.TravelCacheEntries()
	err := s.Service.ClearTravelCache(r.Context())
	// The local cache is gone even when the shared tier failed; peers follow.
	s.Broker.Publish(travelCacheTopic, Event{
		Type: eventTravelCacheCleared,
		Data: map[string]any{"origin": s.InstanceID},
	})
	if err != nil {
		s.Logger.Error().Err(err).Int("entries", entries).Msg("travel cache partially cleared")
		writeProblem(w, http.StatusInternalServerError, "Clear partially failed",
			"local caches cleared and peers notified; shared cache not cleared: "+err.Error(), r.URL.Path)
		return
	}
	s.Logger.Info().Int("entries", entries).Msg("travel cache cleared")
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "entries": entries})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) DebugInfoHandler(w http.ResponseWriter, r *http.Request) {
	start, end := s.Service.Workday()
	writeJSON(w, http.StatusOK, map[string]any{
		"build":    buildinfo.Info(),
		"instance": s.InstanceID,
		"time":     time.Now().UTC().Format(time.RFC3339),
		"workday":  map[string]int{"startMinutes": start, "endMinutes": end},
		"travelCache": map[string]any{
			"entries": s.Service.TravelCacheEntries(),
		},
	})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, title string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
	case errors.Is(err, schedule.ErrInvalidRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
	default:
		s.Logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg(title)
		writeProblem(w, http.StatusInternalServerError, title, err.Error(), r.URL.Path)
	}
}
