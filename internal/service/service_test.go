package service

import (
	"testing"

	"coachtrips/internal/model"
)

func searchFixtures() []model.TravelEvent {
	return []model.TravelEvent{
		{ID: "ev1", Title: "Lakes Day Trip", Destination: "Windermere", PickupLocation: "Manchester"},
		{ID: "ev2", Title: "Stadium Run", Destination: "Wembley", PickupLocation: "Leeds"},
		{ID: "ev3", Title: "Coast Walk", Destination: "Whitby", PickupLocation: "York Station"},
	}
}

func TestFilterEventsMatchesAnyOfThreeFields(t *testing.T) {
	events := searchFixtures()

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"title match", "lakes", []string{"ev1"}},
		{"destination match", "wembley", []string{"ev2"}},
		{"pickup match", "york", []string{"ev3"}},
		{"case insensitive", "WHITBY", []string{"ev3"}},
		{"substring across events", "w", []string{"ev1", "ev2", "ev3"}},
		{"no match", "paris", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := filterEvents(events, tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("filterEvents(%q) returned %d events, want %d", tc.query, len(got), len(tc.want))
			}
			for i, ev := range got {
				if ev.ID != tc.want[i] {
					t.Fatalf("filterEvents(%q)[%d] = %s, want %s", tc.query, i, ev.ID, tc.want[i])
				}
			}
		})
	}
}

func TestFilterEventsBlankQueryKeepsAll(t *testing.T) {
	events := searchFixtures()

	if got := filterEvents(events, ""); len(got) != len(events) {
		t.Fatalf("blank query dropped events: %d of %d", len(got), len(events))
	}
	if got := filterEvents(events, "   "); len(got) != len(events) {
		t.Fatalf("whitespace query dropped events: %d of %d", len(got), len(events))
	}
}
