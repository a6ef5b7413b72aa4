package main

import (
	"bytes"
	"strings"
	"testing"

	"crewtime/internal/model"
)

func TestPrintTimeline(t *testing.T) {
	raw := 25
	tl := model.DayTimeline{
		CrewID:            "c1",
		Date:              "2025-03-03",
		WorkdayEndMinutes: 720,
		Items: []model.TimelineItem{
			model.JobItem(model.Assignment{ID: "a", StartMinutes: 480, EndMinutes: 540, Label: "Boiler"}),
			model.TravelItem(model.TravelBlock{StartMinutes: 540, EndMinutes: 570, Kind: model.TravelBetween, RawResolvedMinutes: &raw, QuantizedMinutes: 30}),
			model.TravelItem(model.TravelBlock{StartMinutes: 600, EndMinutes: 630, Kind: model.TravelHomeBaseEnd, QuantizedMinutes: 30, Defaulted: true}),
		},
	}
	var buf bytes.Buffer
	printTimeline(&buf, tl)
	out := buf.String()
	for _, want := range []string{
		"c1 2025-03-03 (workday 00:00-12:00)",
		"08:00-09:00  job     a Boiler",
		"09:00-09:30  travel  between",
		"10:00-10:30  travel  home_base_end (default)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}
