// Package attendance computes attendance rates from fingerprint logs.
// Nothing is cached: every figure is derived from the log set passed in.
package attendance

import (
	"math"
	"strings"
	"time"

	"fingerattend/internal/model"
)

// DefaultGoodPercent is the lowest percentage with a good standing.
const DefaultGoodPercent = 75

// Standing classifies a course's attendance rate.
type Standing string

const (
	Good Standing = "good"
	Low  Standing = "low"
)

// Percent returns success/total as a rounded percentage. A zero total counts
// as one so the result is 0, never a division by zero.
func Percent(success, total int) int {
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(success) / float64(total) * 100))
}

// CourseStat is the attendance of one course.
type CourseStat struct {
	Code     string   `json:"courseCode"`
	Attended int      `json:"attended"`
	Total    int      `json:"total"`
	Percent  int      `json:"percentage"`
	Standing Standing `json:"standing"`
}

// Summary is the attendance across all logs.
type Summary struct {
	Attended   int `json:"attended"`
	Missed     int `json:"missed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Calculator derives stats against a standing threshold.
type Calculator struct {
	goodPercent int
}

// NewCalculator creates a calculator. A threshold outside 1..100 falls back to
// DefaultGoodPercent.
func NewCalculator(goodPercent int) *Calculator {
	if goodPercent < 1 || goodPercent > 100 {
		goodPercent = DefaultGoodPercent
	}
	return &Calculator{goodPercent: goodPercent}
}

// GoodPercent returns the configured threshold.
func (c *Calculator) GoodPercent() int { return c.goodPercent }

// Standing classifies pct.
func (c *Calculator) Standing(pct int) Standing {
	if pct >= c.goodPercent {
		return Good
	}
	return Low
}

// Course computes the stats of one course code.
func (c *Calculator) Course(logs []model.AttendanceLog, code string) CourseStat {
	st := CourseStat{Code: code}
	for _, l := range logs {
		if !sameCode(l.SubjectCode, code) {
			continue
		}
		st.Total++
		if l.Result == model.ResultSuccess {
			st.Attended++
		}
	}
	st.Percent = Percent(st.Attended, st.Total)
	st.Standing = c.Standing(st.Percent)
	return st
}

// Courses computes stats for each code, keeping the order of codes.
func (c *Calculator) Courses(logs []model.AttendanceLog, codes []string) []CourseStat {
	out := make([]CourseStat, 0, len(codes))
	for _, code := range codes {
		out = append(out, c.Course(logs, code))
	}
	return out
}

// LowCount counts the courses in a low standing.
func (c *Calculator) LowCount(stats []CourseStat) int {
	n := 0
	for _, st := range stats {
		if c.Standing(st.Percent) == Low {
			n++
		}
	}
	return n
}

// Summarize totals every log.
func Summarize(logs []model.AttendanceLog) Summary {
	var s Summary
	for _, l := range logs {
		s.Total++
		if l.Result == model.ResultSuccess {
			s.Attended++
		} else {
			s.Missed++
		}
	}
	s.Percentage = Percent(s.Attended, s.Total)
	return s
}

// ScannedToday reports whether a successful scan was logged on now's date.
func ScannedToday(logs []model.AttendanceLog, now time.Time) bool {
	today := now.Format(time.DateOnly)
	for _, l := range logs {
		if l.Result == model.ResultSuccess && logDate(l.Date) == today {
			return true
		}
	}
	return false
}

// FingerprintRegistered reports whether s has a linked fingerprint.
func FingerprintRegistered(s model.Student) bool { return s.FingerprintRegistered() }

// logDate trims a timestamp such as "2025-05-05T09:00:00" to its date.
func logDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(time.DateOnly) {
		return s[:len(time.DateOnly)]
	}
	return s
}

func sameCode(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
