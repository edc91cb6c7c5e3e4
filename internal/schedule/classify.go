package schedule

import (
	"slices"
	"strings"
	"time"

	"tornadocal/internal/model"
)

// Team selects events whose lower-cased title contains Match.
type Team struct {
	Name  string
	Match string
}

// DefaultTeams are the four buckets the club schedules for.
func DefaultTeams() []Team {
	return []Team{
		{Name: "A Team", Match: "a team"},
		{Name: "B Team", Match: "b team"},
		{Name: "Youth Team", Match: "youth"},
		{Name: "Beginners", Match: "beginners"},
	}
}

// Classify builds a Collection from parsed events. Only dated events take
// part in AllEvents and the team buckets; team membership is
// non-exclusive. The input slice is not modified.
func Classify(events []model.Event, teams []Team, loc *time.Location) model.Collection {
	dated := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Dated() {
			dated = append(dated, ev)
		}
	}
	slices.SortStableFunc(dated, compareEvents)

	buckets := make([]model.TeamEvents, len(teams))
	for i, t := range teams {
		buckets[i] = model.TeamEvents{
			Name:   t.Name,
			Match:  strings.ToLower(t.Match),
			Events: []model.Event{},
		}
	}

	for _, ev := range dated {
		title := strings.ToLower(strings.TrimSpace(ev.Title))
		for i := range buckets {
			if buckets[i].Match != "" && strings.Contains(title, buckets[i].Match) {
				buckets[i].Events = append(buckets[i].Events, ev)
			}
		}
	}

	all := slices.Clone(events)
	if all == nil {
		all = []model.Event{}
	}

	coll := model.Collection{
		Events:    all,
		AllEvents: dated,
		Teams:     buckets,
	}
	if loc != nil {
		coll.Timezone = loc.String()
	}
	return coll
}

// compareEvents orders by start date, then timed before all-day, then by
// the actual start instant. Formatted 12-hour strings are never compared:
// "01:00 PM" sorts before "09:00 AM" as text.
func compareEvents(a, b model.Event) int {
	if c := a.StartDate.Compare(*b.StartDate); c != 0 {
		return c
	}
	if c := clockRank(a) - clockRank(b); c != 0 {
		return c
	}
	if a.StartAt != nil && b.StartAt != nil {
		return a.StartAt.Compare(*b.StartAt)
	}
	return 0
}

func clockRank(ev model.Event) int {
	switch {
	case ev.AllDay:
		return 1
	case ev.StartAt != nil:
		return 0
	default:
		return 2
	}
}
