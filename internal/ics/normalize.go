package ics

import (
	"time"

	appLog "tornadocal/internal/log"
	"tornadocal/internal/model"
)

// ClockLayout is the wall-clock format used for event times: zero-padded
// 12-hour clock with AM/PM.
const ClockLayout = "03:04 PM"

// Resolution is a DTSTART/DTEND value resolved into the reference zone.
type Resolution struct {
	Date    model.Date
	Time    string // ClockLayout-formatted, or model.AllDayMarker
	Weekday string
	AllDay  bool
	At      time.Time // the instant; midnight for all-day values
}

// Strategy is one way of reading a raw date/time value. Resolve reports
// false when the value is not in a shape the strategy understands.
type Strategy struct {
	Name    string
	Resolve func(raw string, ref *time.Location) (Resolution, bool)
}

// Zoned layouts carry their own offset ("Z" or ±hhmm / ±hh:mm) and are
// converted into the reference zone.
var zonedLayouts = []string{
	"20060102T150405Z0700",
	"20060102T150405Z07:00",
	"20060102T1504Z0700",
	"20060102T1504Z07:00",
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// Floating layouts have no zone and are read as reference-zone wall time.
var floatingLayouts = []string{
	"20060102T150405",
	"20060102T1504",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// DateTimeStrategy reads a full date-time. Values without a time component
// are rejected so bare dates fall through to BareDateStrategy.
var DateTimeStrategy = Strategy{
	Name: "datetime",
	Resolve: func(raw string, ref *time.Location) (Resolution, bool) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return timed(t.In(ref)), true
			}
		}
		for _, layout := range floatingLayouts {
			if t, err := time.ParseInLocation(layout, raw, ref); err == nil {
				return timed(t), true
			}
		}
		return Resolution{}, false
	},
}

// BareDateStrategy reads the first eight characters as YYYYMMDD, already a
// date in the reference zone, and marks the value as all-day.
var BareDateStrategy = Strategy{
	Name: "bare-date",
	Resolve: func(raw string, ref *time.Location) (Resolution, bool) {
		if len(raw) < 8 {
			return Resolution{}, false
		}
		t, err := time.ParseInLocation("20060102", raw[:8], ref)
		if err != nil {
			return Resolution{}, false
		}
		return Resolution{
			Date:    model.DateOf(t),
			Time:    model.AllDayMarker,
			Weekday: t.Weekday().String(),
			AllDay:  true,
			At:      t,
		}, true
	},
}

// DefaultStrategies is the order in which values are tried.
func DefaultStrategies() []Strategy {
	return []Strategy{DateTimeStrategy, BareDateStrategy}
}

func timed(t time.Time) Resolution {
	return Resolution{
		Date:    model.DateOf(t),
		Time:    t.Format(ClockLayout),
		Weekday: t.Weekday().String(),
		At:      t,
	}
}

// Normalizer resolves raw values into a single reference timezone by trying
// each strategy in order.
type Normalizer struct {
	ref        *time.Location
	strategies []Strategy
}

// NewNormalizer builds a Normalizer for ref. With no strategies given,
// DefaultStrategies is used.
func NewNormalizer(ref *time.Location, strategies ...Strategy) *Normalizer {
	if ref == nil {
		ref = time.Local
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Normalizer{ref: ref, strategies: strategies}
}

// Location returns the reference zone.
func (n *Normalizer) Location() *time.Location {
	return n.ref
}

// Normalize returns the first successful strategy's resolution.
func (n *Normalizer) Normalize(raw string) (Resolution, bool) {
	for _, s := range n.strategies {
		if res, ok := s.Resolve(raw, n.ref); ok {
			return res, true
		}
	}
	appLog.Debug("ics date value not understood", "value", raw)
	return Resolution{}, false
}

// Event converts a scanned record into an Event.
func (n *Normalizer) Event(rec RawRecord) model.Event {
	ev := model.Event{
		Title:       rec[FieldTitle],
		Description: rec[FieldDescription],
		StartTime:   model.UnknownMarker,
		Weekday:     model.UnknownMarker,
	}

	if raw, ok := rec[FieldStart]; ok {
		if res, ok := n.Normalize(raw); ok {
			date, at := res.Date, res.At
			ev.StartDate = &date
			ev.StartTime = res.Time
			ev.Weekday = res.Weekday
			ev.AllDay = res.AllDay
			ev.StartAt = &at
		}
	}

	if raw, ok := rec[FieldEnd]; ok {
		ev.EndTime = model.UnknownMarker
		if res, ok := n.Normalize(raw); ok {
			date, at := res.Date, res.At
			ev.EndDate = &date
			ev.EndTime = res.Time
			ev.EndAt = &at
		}
	}

	return ev
}
