package schedule

import (
	"time"

	"tornadocal/internal/model"
)

// weekDays is the display order of the weekly schedule.
var weekDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// GroupByWeekday returns Monday through Sunday, each with the events that
// fall on it in input order. Days without events are kept with an empty
// list.
func GroupByWeekday(events []model.Event) []model.DaySchedule {
	days := make([]model.DaySchedule, len(weekDays))
	index := make(map[string]int, len(weekDays))
	for i, wd := range weekDays {
		days[i] = model.DaySchedule{Day: wd.String(), Events: []model.Event{}}
		index[wd.String()] = i
	}

	for _, ev := range events {
		i, ok := index[ev.Weekday]
		if !ok {
			continue
		}
		days[i].Events = append(days[i].Events, ev)
	}
	return days
}

// WeekOf returns the Monday and Sunday of the week containing today.
func WeekOf(today model.Date) (start, end model.Date) {
	offset := (int(today.Weekday()) + 6) % 7
	start = today.AddDays(-offset)
	return start, start.AddDays(6)
}

// FilterWeek keeps the dated events that start within today's week.
func FilterWeek(events []model.Event, today model.Date) []model.Event {
	start, end := WeekOf(today)
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.StartDate == nil {
			continue
		}
		if ev.StartDate.Before(start) || ev.StartDate.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// FilterCollectionWeek narrows every list of c to today's week.
func FilterCollectionWeek(c model.Collection, today model.Date) model.Collection {
	out := c
	out.AllEvents = FilterWeek(c.AllEvents, today)
	out.Teams = make([]model.TeamEvents, len(c.Teams))
	for i, t := range c.Teams {
		t.Events = FilterWeek(t.Events, today)
		out.Teams[i] = t
	}
	return out
}
