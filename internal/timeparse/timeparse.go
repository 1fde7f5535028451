package timeparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
)

// clockPattern matches h:mm am/pm tokens embedded in free text, with optional
// seconds and internal whitespace before the meridiem.
var clockPattern = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?\s*[AaPp][Mm]`)

// ExtractClockTimes scans raw schedule text for clock-time tokens and returns
// them in order of appearance. Schedule data is free text and may contain
// noise; unparseable tokens are dropped silently. Blank input yields nil.
func ExtractClockTimes(raw string) []models.ParsedTime {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	matches := clockPattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	var out []models.ParsedTime
	for _, m := range matches {
		t, ok := parseClock(m)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SplitTimeNote parses a single raw token into its time plus leftover
// annotation. Multi-line input treats line 1 as the time and the remaining
// lines joined as the note; otherwise the residual text around the matched
// token (minus any leading dash) becomes the note.
func SplitTimeNote(raw string) (models.ParsedTime, bool) {
	r := strings.TrimSpace(raw)
	if r == "" {
		return models.ParsedTime{}, false
	}

	if idx := strings.IndexByte(r, '\n'); idx >= 0 {
		lines := strings.Split(r, "\n")
		t, ok := SplitTimeNote(strings.TrimSpace(lines[0]))
		if !ok {
			return models.ParsedTime{}, false
		}
		note := strings.TrimSpace(strings.Join(lines[1:], " "))
		t.Note = note
		return t, true
	}

	m := clockPattern.FindString(r)
	if m == "" {
		return models.ParsedTime{}, false
	}

	t, ok := parseClock(m)
	if !ok {
		return models.ParsedTime{}, false
	}

	note := strings.Replace(r, m, "", 1)
	note = strings.TrimSpace(note)
	note = strings.TrimLeft(note, "-—–")
	t.Note = strings.TrimSpace(note)
	return t, true
}

// parseClock normalizes a matched token (strip internal whitespace, uppercase
// meridiem) and parses it. Seconds, if present, are parsed but not retained;
// only hour:minute granularity matters downstream.
func parseClock(token string) (models.ParsedTime, bool) {
	s := strings.ToUpper(strings.Join(strings.Fields(token), ""))

	var parsed time.Time
	var err error
	if strings.Count(s, ":") == 2 {
		parsed, err = time.Parse("3:04:05PM", s)
	} else {
		parsed, err = time.Parse("3:04PM", s)
	}
	if err != nil {
		return models.ParsedTime{}, false
	}

	return models.ParsedTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, true
}

// NextOccurrence returns the next instant strictly after now that carries the
// given time-of-day: today's occurrence if it is still ahead, otherwise
// tomorrow's. The boundary is exclusive; an occurrence equal to now rolls to
// tomorrow. The result uses now's location.
func NextOccurrence(now time.Time, t models.ParsedTime) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if today.After(now) {
		return today
	}
	return today.AddDate(0, 0, 1)
}

// FormatClock renders a time-of-day the way it appears in notifications,
// e.g. "8:00 AM".
func FormatClock(t models.ParsedTime) string {
	ref := time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC)
	return ref.Format("3:04 PM")
}
