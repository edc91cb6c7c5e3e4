package ics

import (
	"strings"
	"testing"
	"time"

	goical "github.com/emersion/go-ical"
)

func TestExportTeamFeedDecodes(t *testing.T) {
	n := NewNormalizer(pacific)
	feed := strings.Join([]string{
		"BEGIN:VEVENT",
		"SUMMARY:A Team Tumbling",
		"DTSTART:20240717T191000",
		"DTEND:20240717T203000",
		"DESCRIPTION:Main gym",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:A Team Meet",
		"DTSTART;VALUE=DATE:20240720",
		"DTEND;VALUE=DATE:20240721",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:A Team TBD",
		"DTSTART:someday",
		"END:VEVENT",
	}, "\n")
	events := ParseEvents(feed, n)

	out := ExportTeamFeed("A Team", events, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	cal, err := goical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("decode exported feed: %v\n%s", err, out)
	}
	vevents := cal.Events()
	if len(vevents) != 2 {
		t.Fatalf("exported %d events, want 2 (undated skipped)", len(vevents))
	}

	summary, err := vevents[0].Props.Text(goical.PropSummary)
	if err != nil || summary != "A Team Tumbling" {
		t.Errorf("summary = %q, %v", summary, err)
	}
	start, err := vevents[0].DateTimeStart(pacific)
	if err != nil {
		t.Fatalf("DateTimeStart: %v", err)
	}
	if want := time.Date(2024, 7, 18, 2, 10, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("timed start = %v, want %v", start, want)
	}

	uid, err := vevents[0].Props.Text(goical.PropUID)
	if err != nil || uid != EventUID("A Team", events[0]) {
		t.Errorf("uid = %q, want %q", uid, EventUID("A Team", events[0]))
	}

	allDay := vevents[1].Props.Get(goical.PropDateTimeStart)
	if allDay == nil || allDay.Value != "20240720" {
		t.Errorf("all-day DTSTART = %+v", allDay)
	}
}

func TestEventUIDStable(t *testing.T) {
	n := NewNormalizer(pacific)
	ev := n.Event(RawRecord{FieldTitle: "Youth", FieldStart: "20240717T181000"})
	again := n.Event(RawRecord{FieldTitle: "Youth", FieldStart: "20240717T181000"})

	if EventUID("Youth Team", ev) != EventUID("Youth Team", again) {
		t.Fatal("UID should be deterministic")
	}
	if EventUID("Youth Team", ev) == EventUID("Beginners", ev) {
		t.Fatal("UID should differ per team feed")
	}
}

func TestExportUnescapesFeedText(t *testing.T) {
	n := NewNormalizer(pacific)
	feed := strings.Join([]string{
		"BEGIN:VEVENT",
		`SUMMARY:A\, B Team`,
		"DTSTART:20240717T191000",
		`DESCRIPTION:Main gym\; bring water\nDoors 6:45`,
		"END:VEVENT",
	}, "\n")
	events := ParseEvents(feed, n)
	if events[0].Title != `A\, B Team` {
		t.Fatalf("parsed title = %q, want raw feed text", events[0].Title)
	}

	out := ExportTeamFeed("A Team", events, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if strings.Contains(out, `\\`) {
		t.Fatalf("export doubled an escape:\n%s", out)
	}

	cal, err := goical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("decode exported feed: %v\n%s", err, out)
	}
	vev := cal.Events()[0]
	if summary, _ := vev.Props.Text(goical.PropSummary); summary != "A, B Team" {
		t.Errorf("summary = %q, want %q", summary, "A, B Team")
	}
	if desc, _ := vev.Props.Text(goical.PropDescription); desc != "Main gym; bring water\nDoors 6:45" {
		t.Errorf("description = %q", desc)
	}
}

func TestTextUnescaper(t *testing.T) {
	tests := []struct{ in, want string }{
		{`plain`, "plain"},
		{`A\, B`, "A, B"},
		{`x\;y`, "x;y"},
		{`one\ntwo\Nthree`, "one\ntwo\nthree"},
		{`back\\slash`, `back\slash`},
		{`\\,`, `\,`},
	}
	for _, tt := range tests {
		if got := textUnescaper.Replace(tt.in); got != tt.want {
			t.Errorf("unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
