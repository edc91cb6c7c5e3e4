package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"tornadocal/internal/model"
)

const exportProductID = "-//tornadocal//team schedule//EN"

// textUnescaper undoes RFC 5545 TEXT escaping. Parsed titles and
// descriptions keep the feed's escapes, and the encoder escapes again.
var textUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\,`, ",",
	`\;`, ";",
	`\n`, "\n",
	`\N`, "\n",
)

// ExportTeamFeed renders a team's events as an ICS document so the bucket
// can be subscribed to directly. Undated events are skipped.
func ExportTeamFeed(team string, events []model.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(exportProductID)
	cal.SetXWRCalName(team)

	for _, ev := range events {
		if ev.StartDate == nil || ev.StartAt == nil {
			continue
		}

		vev := cal.AddEvent(EventUID(team, ev))
		vev.SetDtStampTime(now)
		vev.SetSummary(textUnescaper.Replace(ev.Title))
		if ev.Description != "" {
			vev.SetDescription(textUnescaper.Replace(ev.Description))
		}

		if ev.AllDay {
			vev.SetAllDayStartAt(*ev.StartAt)
			if ev.EndAt != nil {
				vev.SetAllDayEndAt(*ev.EndAt)
			}
			continue
		}

		vev.SetStartAt(*ev.StartAt)
		if ev.EndAt != nil {
			vev.SetEndAt(*ev.EndAt)
		}
	}

	return cal.Serialize()
}

// EventUID derives a stable UID from the team, title and start so
// subscribers see the same identity across refreshes.
func EventUID(team string, ev model.Event) string {
	key := team + "|" + ev.Title
	if ev.StartAt != nil {
		key += "|" + ev.StartAt.UTC().Format(time.RFC3339)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@tornadocal"
}
