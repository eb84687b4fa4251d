// Package apptime encodes appointment timestamps in the clinic's
// "DD/MM/YYYY at H:MM am|pm" wall-clock format.
package apptime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Separator joins the date and time halves of an encoded timestamp.
const Separator = " at "

var (
	ErrMissingSeparator = errors.New("apptime: missing \" at \" separator")
	ErrMissingMeridian  = errors.New("apptime: missing am/pm marker")
	ErrInvalidMeridian  = errors.New("apptime: marker must be am or pm")
	ErrInvalidDate      = errors.New("apptime: invalid date")
	ErrInvalidTime      = errors.New("apptime: invalid time")
	ErrSkippedTime      = errors.New("apptime: wall time does not exist in location")
)

// Format renders t in its own location. Seconds are dropped.
func Format(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridian := "am"
	if t.Hour() >= 12 {
		meridian = "pm"
	}
	return fmt.Sprintf("%02d/%02d/%04d%s%d:%02d %s",
		t.Day(), int(t.Month()), t.Year(), Separator, hour, t.Minute(), meridian)
}

// Parse decodes s as a wall-clock time in time.Local.
func Parse(s string) (time.Time, error) {
	return ParseInLocation(s, time.Local)
}

// ParseInLocation decodes s as a wall-clock time in loc.
func ParseInLocation(s string, loc *time.Location) (time.Time, error) {
	datePart, timePart, ok := strings.Cut(strings.TrimSpace(s), Separator)
	if !ok {
		return time.Time{}, ErrMissingSeparator
	}

	fields := strings.Split(datePart, "/")
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, datePart)
	}
	day, okDay := number(fields[0], 1, 2)
	month, okMonth := number(fields[1], 1, 2)
	year, okYear := number(fields[2], 4, 4)
	if !okDay || !okMonth || !okYear || year == 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, datePart)
	}

	clock, meridian, ok := strings.Cut(timePart, " ")
	if !ok || meridian == "" {
		return time.Time{}, ErrMissingMeridian
	}
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	hour, okHour := number(hh, 1, 2)
	minute, okMinute := number(mm, 2, 2)
	if !okHour || !okMinute || hour < 1 || hour > 12 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}

	switch strings.ToLower(meridian) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMeridian, meridian)
	}

	if loc == nil {
		loc = time.Local
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, datePart)
	}
	// time.Date shifts wall times inside a daylight-saving gap.
	if t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, fmt.Errorf("%w: %q in %s", ErrSkippedTime, s, loc)
	}
	return t, nil
}

// Valid reports whether s decodes.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// DateOf returns midnight of t's calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// number parses an unsigned decimal of minLen..maxLen ASCII digits.
func number(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
