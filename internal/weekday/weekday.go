package weekday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day is the institutional teaching day. The week runs Saturday through
// Thursday; there is no Friday.
type Day int

const (
	Unknown Day = iota
	Saturday
	Sunday
	Monday
	Tuesday
	Wednesday
	Thursday
)

var names = [...]string{
	Unknown:   "Unknown",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
}

var week = []Day{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday}

// Week returns the teaching days in display order.
func Week() []Day {
	out := make([]Day, len(week))
	copy(out, week)
	return out
}

// Valid reports whether d is one of the six teaching days.
func (d Day) Valid() bool { return d >= Saturday && d <= Thursday }

func (d Day) String() string {
	if !d.Valid() {
		return names[Unknown]
	}
	return names[d]
}

// FromNumber decodes the wire value (1 = Saturday … 6 = Thursday).
func FromNumber(n int) Day {
	d := Day(n)
	if !d.Valid() {
		return Unknown
	}
	return d
}

// Number is the wire value of d, 0 when unknown.
func (d Day) Number() int {
	if !d.Valid() {
		return 0
	}
	return int(d)
}

// Parse maps a day name (any case) or its wire number to a Day.
func Parse(s string) Day {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return FromNumber(n)
	}
	for _, d := range week {
		if strings.EqualFold(names[d], s) {
			return d
		}
	}
	return Unknown
}

// Of returns the teaching day t falls on; Friday is Unknown.
func Of(t time.Time) Day {
	switch t.Weekday() {
	case time.Saturday:
		return Saturday
	case time.Sunday:
		return Sunday
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	}
	return Unknown
}

// MarshalText renders the day name, so Day works as a JSON map key.
func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts a day name or wire number.
func (d *Day) UnmarshalText(b []byte) error {
	*d = Parse(string(b))
	return nil
}

const ticksPerMinute = 60 * 10_000_000

// Clock normalises a time of day to zero-padded "HH:MM". It accepts "9:5",
// "09:00:00", "9:00 AM" and "21:00". Unparseable input is returned trimmed.
func Clock(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return ""
	}
	body, modifier := raw, ""
	if i := strings.LastIndexByte(raw, ' '); i > 0 {
		body, modifier = raw[:i], strings.ToUpper(strings.TrimSpace(raw[i+1:]))
	}
	parts := strings.Split(body, ":")
	if len(parts) < 2 {
		return raw
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return raw
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return raw
	}
	switch modifier {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return raw
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ClockFromTicks converts a .NET TimeSpan tick count to "HH:MM".
func ClockFromTicks(ticks int64) string {
	if ticks < 0 {
		return ""
	}
	minutes := ticks / ticksPerMinute
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

// WireClock renders "HH:MM" as the backend's "HH:MM:SS" TimeSpan string.
func WireClock(hhmm string) string {
	c := Clock(hhmm)
	if len(c) != 5 {
		return c
	}
	return c + ":00"
}
