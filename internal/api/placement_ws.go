package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"crewtime/internal/model"
	"crewtime/internal/schedule"
	"crewtime/internal/store"
)

// Drag feedback over WebSocket: the client sends a "place" message for every
// pointer move and gets a "placement" answer with the same id.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 20 * time.Second
	wsWriteTimeout = 5 * time.Second
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type placePayload struct {
	Date                string `json:"date"`
	DesiredStartMinutes int    `json:"desiredStartMinutes"`
	DurationMinutes     int    `json:"durationMinutes"`
	AssignmentID        string `json:"assignmentId,omitempty"`
}

type wsError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// PlacementWSHandler handles /v1/crews/{crewId}/placement/ws
func (s *Server) PlacementWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	crewID := chi.URLParam(r, "crewId")
	log := s.Logger.With().Str("crew", crewID).Str("request_id", requestIDFrom(r.Context())).Logger()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(wsReadTimeout)) })

	// gorilla allows one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(v)
	}
	writeErr := func(id string, status int, msg string) {
		pl, _ := json.Marshal(wsError{Message: msg, Status: status})
		_ = write(wsMessage{Type: "error", ID: id, Payload: pl})
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				wmu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
				wmu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("placement stream closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong", ID: msg.ID})
		case "place":
			var pl placePayload
			if err := json.Unmarshal(msg.Payload, &pl); err != nil {
				writeErr(msg.ID, http.StatusBadRequest, "invalid payload")
				continue
			}
			req := model.PlacementRequest{
				CrewID:              crewID,
				Date:                pl.Date,
				DesiredStartMinutes: pl.DesiredStartMinutes,
				DurationMinutes:     pl.DurationMinutes,
				AssignmentID:        pl.AssignmentID,
			}
			if err := validatePlacementRequest(&req); err != nil {
				writeErr(msg.ID, http.StatusBadRequest, err.Error())
				continue
			}
			res, err := s.Service.Place(r.Context(), req)
			if err != nil {
				status := http.StatusInternalServerError
				switch {
				case errors.Is(err, store.ErrNotFound):
					status = http.StatusNotFound
				case errors.Is(err, schedule.ErrInvalidRequest):
					status = http.StatusBadRequest
				default:
					log.Error().Err(err).Msg("placement failed")
				}
				writeErr(msg.ID, status, err.Error())
				continue
			}
			out, _ := json.Marshal(res)
			if err := write(wsMessage{Type: "placement", ID: msg.ID, Payload: out}); err != nil {
				return
			}
		default:
			writeErr(msg.ID, http.StatusBadRequest, "unknown message type: "+msg.Type)
		}
	}
}
