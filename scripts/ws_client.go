// Package main runs a demo drag client: it sweeps a job across a crew's day
// over the placement WebSocket and prints where each drop would land.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type placement struct {
	Outcome      string `json:"outcome"`
	StartMinutes int    `json:"startMinutes"`
	EndMinutes   int    `json:"endMinutes"`
	Reason       string `json:"reason"`
	RejectReason string `json:"rejectReason"`
}

func main() {
	host := flag.String("host", "localhost:8080", "API host:port")
	crew := flag.String("crew", "crew-1", "crew id")
	date := flag.String("date", time.Now().Format("2006-01-02"), "day (YYYY-MM-DD)")
	duration := flag.Int("duration", 60, "dragged job duration in minutes")
	from := flag.Int("from", 0, "first desired start")
	to := flag.Int("to", 720, "last desired start")
	step := flag.Int("step", 15, "pointer step in minutes")
	flag.Parse()

	resp, err := http.Get(fmt.Sprintf("http://%s/v1/crews/%s/timeline?date=%s", *host, url.PathEscape(*crew), url.QueryEscape(*date)))
	if err != nil {
		log.Fatal(err)
	}
	var tl struct {
		Occupancy []struct {
			Kind         string `json:"kind"`
			ID           string `json:"id"`
			StartMinutes int    `json:"startMinutes"`
			EndMinutes   int    `json:"endMinutes"`
		} `json:"occupancy"`
	}
	err = json.NewDecoder(resp.Body).Decode(&tl)
	_ = resp.Body.Close()
	if err != nil {
		log.Fatal(err)
	}
	for _, iv := range tl.Occupancy {
		log.Printf("occupied %4d-%4d %-6s %s", iv.StartMinutes, iv.EndMinutes, iv.Kind, iv.ID)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/v1/crews/" + *crew + "/placement/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if *step <= 0 {
		*step = 15
	}
	for desired := *from; desired <= *to; desired += *step {
		pl, _ := json.Marshal(map[string]any{
			"date":                *date,
			"desiredStartMinutes": desired,
			"durationMinutes":     *duration,
		})
		id := fmt.Sprint(desired)
		if err := c.WriteJSON(wsMessage{Type: "place", ID: id, Payload: pl}); err != nil {
			log.Fatal(err)
		}
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Fatalf("read: %v", err)
		}
		if m.Type != "placement" {
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
			continue
		}
		var p placement
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			log.Fatal(err)
		}
		switch p.Outcome {
		case "rejected":
			log.Printf("drag %4d -> rejected (%s)", desired, p.RejectReason)
		case "snapped":
			log.Printf("drag %4d -> %4d-%4d snapped past %s", desired, p.StartMinutes, p.EndMinutes, p.Reason)
		default:
			log.Printf("drag %4d -> %4d-%4d", desired, p.StartMinutes, p.EndMinutes)
		}
	}
}
