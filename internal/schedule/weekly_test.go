package schedule

import (
	"reflect"
	"testing"
	"time"

	"tornadocal/internal/model"
)

func TestGroupByWeekday(t *testing.T) {
	events := []model.Event{
		event("wed 1", "20240717T181000"),
		event("sat", "20240720"),
		event("wed 2", "20240717T191000"),
		event("unknown", "soon"),
	}

	days := GroupByWeekday(events)

	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	order := make([]string, 0, 7)
	for _, d := range days {
		order = append(order, d.Day)
	}
	wantOrder := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Fatalf("day order = %v", order)
	}
	if got := titles(days[2].Events); !reflect.DeepEqual(got, []string{"wed 1", "wed 2"}) {
		t.Errorf("Wednesday = %v", got)
	}
	if got := titles(days[5].Events); !reflect.DeepEqual(got, []string{"sat"}) {
		t.Errorf("Saturday = %v", got)
	}
	if days[0].Events == nil {
		t.Error("empty day should have a non-nil list")
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		today      model.Date
		start, end string
	}{
		{model.Date{Year: 2024, Month: time.July, Day: 17}, "2024-07-15", "2024-07-21"},
		{model.Date{Year: 2024, Month: time.July, Day: 15}, "2024-07-15", "2024-07-21"},
		{model.Date{Year: 2024, Month: time.July, Day: 21}, "2024-07-15", "2024-07-21"},
		{model.Date{Year: 2024, Month: time.January, Day: 1}, "2024-01-01", "2024-01-07"},
		{model.Date{Year: 2025, Month: time.January, Day: 1}, "2024-12-30", "2025-01-05"},
	}
	for _, tt := range tests {
		start, end := WeekOf(tt.today)
		if start.String() != tt.start || end.String() != tt.end {
			t.Errorf("WeekOf(%s) = %s..%s, want %s..%s", tt.today, start, end, tt.start, tt.end)
		}
	}
}

func TestFilterCollectionWeek(t *testing.T) {
	events := []model.Event{
		event("A Team last week", "20240712"),
		event("A Team this week", "20240716T180000"),
		event("A Team sunday", "20240721T180000"),
		event("A Team next week", "20240722"),
	}
	coll := Classify(events, DefaultTeams(), pacific)

	week := FilterCollectionWeek(coll, model.Date{Year: 2024, Month: time.July, Day: 17})

	want := []string{"A Team this week", "A Team sunday"}
	if got := titles(week.AllEvents); !reflect.DeepEqual(got, want) {
		t.Errorf("all events = %v, want %v", got, want)
	}
	team, _ := week.Team("A Team")
	if got := titles(team.Events); !reflect.DeepEqual(got, want) {
		t.Errorf("A Team = %v, want %v", got, want)
	}
	if len(coll.AllEvents) != 4 {
		t.Error("filtering mutated the source collection")
	}
}
