package model

import (
	"strings"
	"time"
)

// Markers used in place of a formatted wall-clock time.
const (
	AllDayMarker  = "All Day"
	UnknownMarker = "Unknown"
)

// Event is a single VEVENT after date/time normalization. All dates and
// times are expressed in the collection's reference timezone.
type Event struct {
	Title string `json:"title" yaml:"title"`

	// StartDate is nil when DTSTART could not be resolved; StartTime and
	// Weekday then carry UnknownMarker.
	StartDate *Date  `json:"start_date" yaml:"start_date"`
	StartTime string `json:"start_time" yaml:"start_time"`
	Weekday   string `json:"weekday" yaml:"weekday"`

	// End fields are left empty when the block has no DTEND.
	EndDate *Date  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	EndTime string `json:"end_time,omitempty" yaml:"end_time,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	AllDay bool `json:"all_day" yaml:"all_day"`

	// StartAt / EndAt are the resolved instants in the reference zone
	// (midnight for all-day values).
	StartAt *time.Time `json:"start_at,omitempty" yaml:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty" yaml:"end_at,omitempty"`
}

// Dated reports whether the event has a resolved start date.
func (e Event) Dated() bool {
	return e.StartDate != nil
}

// TeamEvents is one team bucket: every event whose lower-cased title
// contains Match.
type TeamEvents struct {
	Name   string  `json:"name" yaml:"name"`
	Match  string  `json:"match" yaml:"match"`
	Events []Event `json:"events" yaml:"events"`
}

// Collection is the result of one ingestion pass.
type Collection struct {
	// Events holds every parsed event in feed order, dated or not.
	Events []Event `json:"-" yaml:"-"`

	// AllEvents holds the dated events in display order.
	AllEvents []Event      `json:"all_events" yaml:"all_events"`
	Teams     []TeamEvents `json:"teams" yaml:"teams"`

	Timezone  string    `json:"timezone" yaml:"timezone"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Team returns the bucket whose name matches (case-insensitively). Unknown
// names yield an empty bucket and false.
func (c Collection) Team(name string) (TeamEvents, bool) {
	for _, t := range c.Teams {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TeamEvents{Name: name, Events: []Event{}}, false
}

// TeamNames lists the configured team names in order.
func (c Collection) TeamNames() []string {
	out := make([]string, 0, len(c.Teams))
	for _, t := range c.Teams {
		out = append(out, t.Name)
	}
	return out
}

// DaySchedule groups events that fall on one weekday.
type DaySchedule struct {
	Day    string  `json:"day" yaml:"day"`
	Events []Event `json:"events" yaml:"events"`
}
