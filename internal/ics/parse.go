package ics

import (
	"strings"

	appLog "tornadocal/internal/log"
	"tornadocal/internal/model"
)

// Field names stored in a RawRecord.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStart       = "dtstart"
	FieldEnd         = "dtend"
)

const (
	prefixBeginEvent  = "BEGIN:VEVENT"
	prefixEndEvent    = "END:VEVENT"
	prefixSummary     = "SUMMARY:"
	prefixDescription = "DESCRIPTION:"
	prefixDTStart     = "DTSTART"
	prefixDTEnd       = "DTEND"
)

// RawRecord holds the raw field values seen inside one VEVENT block.
// Values are not unescaped.
type RawRecord map[string]string

// ScanState is the scanner's only state: the record being accumulated,
// or nil outside a VEVENT block.
type ScanState struct {
	current RawRecord
}

// Active reports whether the scanner is inside a VEVENT block.
func (s ScanState) Active() bool {
	return s.current != nil
}

// Step folds one line into the scan state. The returned record is non-nil
// only when line closes a block that holds at least one field.
func Step(state ScanState, line string) (ScanState, RawRecord) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, prefixBeginEvent):
		// A new block discards any unterminated one.
		return ScanState{current: RawRecord{}}, nil

	case strings.HasPrefix(line, prefixEndEvent):
		done := state.current
		if len(done) == 0 {
			return ScanState{}, nil
		}
		return ScanState{}, done
	}

	if !state.Active() {
		return state, nil
	}

	switch {
	case strings.HasPrefix(line, prefixSummary):
		state.current[FieldTitle] = line[len(prefixSummary):]
	case strings.HasPrefix(line, prefixDescription):
		state.current[FieldDescription] = line[len(prefixDescription):]
	case strings.HasPrefix(line, prefixDTStart):
		setDateValue(state.current, FieldStart, line)
	case strings.HasPrefix(line, prefixDTEnd):
		setDateValue(state.current, FieldEnd, line)
	}
	return state, nil
}

// setDateValue stores the text after the first colon of a DTSTART/DTEND
// line, whatever parameters precede it (";VALUE=DATE", ";TZID=...").
func setDateValue(rec RawRecord, field, line string) {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		appLog.Debug("ics line without value ignored", "field", field, "line", line)
		return
	}
	rec[field] = strings.TrimSpace(value)
}

// ParseRecords scans an ICS document (LF or CRLF) and returns one record
// per non-empty VEVENT block, in document order.
func ParseRecords(body string) []RawRecord {
	records := make([]RawRecord, 0)
	var state ScanState
	for _, line := range strings.Split(body, "\n") {
		var done RawRecord
		state, done = Step(state, line)
		if done != nil {
			records = append(records, done)
		}
	}
	return records
}

// ParseEvents scans body and normalizes every record into an Event.
func ParseEvents(body string, n *Normalizer) []model.Event {
	records := ParseRecords(body)
	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, n.Event(rec))
	}
	appLog.Debug("ics parse completed", "event_count", len(events))
	return events
}
