// Package schedule buckets joined lectures into a weekly timetable.
//
// Lectures are grouped by faculty name, then year label, then day. Within a
// day they are stably sorted by their "HH:MM" start time. Display order of
// days is always the institutional week, Saturday to Thursday, with Unknown
// last.
package schedule

import (
	"slices"
	"strings"

	"fingerattend/internal/join"
	"fingerattend/internal/weekday"
)

// Day is one day's sessions.
type Day struct {
	Day      weekday.Day    `json:"day"`
	Lectures []join.Lecture `json:"lectures"`
}

// Year is the timetable of one faculty year.
type Year struct {
	Year string `json:"year"`
	Days []Day  `json:"days"`
}

// Faculty is the timetable of one faculty.
type Faculty struct {
	Faculty string `json:"faculty"`
	Years   []Year `json:"years"`
}

// Grouping is the Faculty → Year → Day mapping. Faculties and years keep the
// order in which they first appear in the input.
type Grouping struct {
	buckets   map[string]map[string]map[weekday.Day][]join.Lecture
	faculties []string
	years     map[string][]string
}

// Group buckets lectures. Every lecture lands in exactly one bucket; a
// lecture with an out-of-range day goes to the Unknown day of its year.
func Group(lectures []join.Lecture) *Grouping {
	g := &Grouping{
		buckets: map[string]map[string]map[weekday.Day][]join.Lecture{},
		years:   map[string][]string{},
	}
	for _, l := range lectures {
		fac, year := l.FacultyName, l.YearLabel
		byYear, ok := g.buckets[fac]
		if !ok {
			byYear = map[string]map[weekday.Day][]join.Lecture{}
			g.buckets[fac] = byYear
			g.faculties = append(g.faculties, fac)
		}
		byDay, ok := byYear[year]
		if !ok {
			byDay = map[weekday.Day][]join.Lecture{}
			byYear[year] = byDay
			g.years[fac] = append(g.years[fac], year)
		}
		d := l.Day
		if !d.Valid() {
			d = weekday.Unknown
		}
		byDay[d] = append(byDay[d], l)
	}
	for _, byYear := range g.buckets {
		for _, byDay := range byYear {
			for d, ls := range byDay {
				sortByStart(ls)
				byDay[d] = ls
			}
		}
	}
	return g
}

// Faculties lists the faculty names present.
func (g *Grouping) Faculties() []string { return slices.Clone(g.faculties) }

// Years lists the year labels present under faculty.
func (g *Grouping) Years(faculty string) []string { return slices.Clone(g.years[faculty]) }

// Lectures returns one bucket, or nil when it is empty.
func (g *Grouping) Lectures(faculty, year string, d weekday.Day) []join.Lecture {
	return slices.Clone(g.buckets[faculty][year][d])
}

// Ordered walks the grouping in display order and omits empty days.
func (g *Grouping) Ordered() []Faculty {
	out := make([]Faculty, 0, len(g.faculties))
	for _, fac := range g.faculties {
		f := Faculty{Faculty: fac}
		for _, year := range g.years[fac] {
			y := Year{Year: year}
			for _, d := range displayDays() {
				if ls := g.buckets[fac][year][d]; len(ls) > 0 {
					y.Days = append(y.Days, Day{Day: d, Lectures: slices.Clone(ls)})
				}
			}
			f.Years = append(f.Years, y)
		}
		out = append(out, f)
	}
	return out
}

// Len counts the grouped lectures.
func (g *Grouping) Len() int {
	n := 0
	for _, byYear := range g.buckets {
		for _, byDay := range byYear {
			for _, ls := range byDay {
				n += len(ls)
			}
		}
	}
	return n
}

// ForDay returns the lectures on d sorted by start time.
func ForDay(lectures []join.Lecture, d weekday.Day) []join.Lecture {
	var out []join.Lecture
	for _, l := range lectures {
		if l.Day == d {
			out = append(out, l)
		}
	}
	sortByStart(out)
	return out
}

// ByDay splits lectures into days in display order, omitting empty days.
func ByDay(lectures []join.Lecture) []Day {
	var out []Day
	for _, d := range displayDays() {
		var ls []join.Lecture
		for _, l := range lectures {
			day := l.Day
			if !day.Valid() {
				day = weekday.Unknown
			}
			if day == d {
				ls = append(ls, l)
			}
		}
		if len(ls) > 0 {
			sortByStart(ls)
			out = append(out, Day{Day: d, Lectures: ls})
		}
	}
	return out
}

// ActiveDay picks the day a timetable opens on: today when it has sessions,
// else the first day of the week that does.
func ActiveDay(lectures []join.Lecture, today weekday.Day) weekday.Day {
	has := map[weekday.Day]bool{}
	for _, l := range lectures {
		has[l.Day] = true
	}
	if today.Valid() && has[today] {
		return today
	}
	for _, d := range weekday.Week() {
		if has[d] {
			return d
		}
	}
	if today.Valid() {
		return today
	}
	return weekday.Saturday
}

func displayDays() []weekday.Day {
	return append(weekday.Week(), weekday.Unknown)
}

func sortByStart(ls []join.Lecture) {
	slices.SortStableFunc(ls, func(a, b join.Lecture) int {
		return strings.Compare(weekday.Clock(a.From), weekday.Clock(b.From))
	})
}
