// Package alarm manages alarms: free-text time parsing, a database-backed
// store, and a background watcher that fires due alarms.
package alarm

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse errors surfaced to the dispatcher, which turns them into corrective
// prompts rather than failures.
var (
	// ErrPastTime is returned for an explicit literal date-time that has
	// already passed. Only explicit dates are rejected; bare clock times
	// roll forward to the next occurrence instead.
	ErrPastTime = errors.New("alarm: time is in the past")

	// ErrUnparsable is returned when no supported time shape matches.
	ErrUnparsable = errors.New("alarm: could not parse a time")
)

var (
	explicitRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(\d{1,2}):(\d{2})\s*(am|pm)`)
	clockRe    = regexp.MustCompile(`(\d{1,2}):?(\d{2})?\s*(am|pm)`)
	minutesRe  = regexp.MustCompile(`in\s+(\d+)\s*minutes?`)
	hoursRe    = regexp.MustCompile(`in\s+(\d+)\s*hours?`)
)

// ParseTimePhrase extracts an alarm time from free text, relative to now.
//
// Supported shapes, tried in order:
//  1. "YYYY-MM-DD H:MM AM/PM": explicit date, rejected with ErrPastTime
//     when already passed.
//  2. "tomorrow ... H(:MM) AM/PM": tomorrow at that clock time.
//  3. "today ..." or "... at H(:MM) AM/PM": today, rolled to tomorrow when
//     the clock time has already passed.
//  4. "in N minutes" / "in N hours": relative offset.
//  5. bare "H:MM AM/PM": same rollover rule as (3).
func ParseTimePhrase(input string, now time.Time) (time.Time, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return time.Time{}, ErrUnparsable
	}

	if m := explicitRe.FindStringSubmatch(text); m != nil {
		date, err := time.ParseInLocation("2006-01-02", m[1], now.Location())
		if err != nil {
			return time.Time{}, ErrUnparsable
		}
		hour, minute := clockFrom(m[2], m[3], m[4])
		at := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, now.Location())
		if !at.After(now) {
			return time.Time{}, ErrPastTime
		}
		return at, nil
	}

	if strings.Contains(text, "tomorrow") {
		if m := clockRe.FindStringSubmatch(text); m != nil {
			hour, minute := clockFrom(m[1], m[2], m[3])
			tomorrow := now.AddDate(0, 0, 1)
			return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, now.Location()), nil
		}
	}

	if strings.Contains(text, "today") || strings.Contains(text, "at") {
		if m := clockRe.FindStringSubmatch(text); m != nil {
			return rollForward(now, m), nil
		}
	}

	if m := minutesRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(n) * time.Minute), nil
	}
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(time.Duration(n) * time.Hour), nil
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		return rollForward(now, m), nil
	}

	return time.Time{}, ErrUnparsable
}

// rollForward builds today's occurrence of the matched clock time, advancing
// a day when it has already passed.
func rollForward(now time.Time, m []string) time.Time {
	hour, minute := clockFrom(m[1], m[2], m[3])
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// clockFrom converts matched hour/minute/period strings to 24-hour values.
func clockFrom(hourStr, minuteStr, period string) (hour, minute int) {
	hour, _ = strconv.Atoi(hourStr)
	if minuteStr != "" {
		minute, _ = strconv.Atoi(minuteStr)
	}
	switch strings.ToLower(period) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute
}
