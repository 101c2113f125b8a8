package refdata

import (
	"context"
	"fmt"
	"log"
	"slices"

	"golang.org/x/sync/errgroup"

	"fingerattend/internal/model"
)

// Domain tags a data collection for loading flags and error reporting.
type Domain string

const (
	Faculties    Domain = "Faculties"
	FacultyYears Domain = "FacultyYears"
	Semesters    Domain = "Semesters"
	Rooms        Domain = "Rooms"
	Doctors      Domain = "Doctors"
)

// FetchError is a failed fetch tagged with its domain.
type FetchError struct {
	Domain Domain
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Domain, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the outcome of fetching one domain. Items is empty when Err is set.
type Result[T any] struct {
	Items []T
	Err   error
}

// Fetch runs fn and converts a failure into an empty, domain-tagged result.
func Fetch[T any](ctx context.Context, domain Domain, fn func(context.Context) ([]T, error)) Result[T] {
	items, err := fn(ctx)
	if err != nil {
		log.Printf("fetch %s failed: %v", domain, err)
		return Result[T]{Items: []T{}, Err: &FetchError{Domain: domain, Err: err}}
	}
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items}
}

// FetchOne is Fetch for single-record lookups.
func FetchOne[T any](ctx context.Context, domain Domain, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		log.Printf("fetch %s failed: %v", domain, err)
		var zero T
		return zero, &FetchError{Domain: domain, Err: err}
	}
	return v, nil
}

// Source provides the lookup collections.
type Source interface {
	Faculties(ctx context.Context) ([]model.Faculty, error)
	FacultyYears(ctx context.Context) ([]model.FacultyYear, error)
	Semesters(ctx context.Context) ([]model.Semester, error)
	Rooms(ctx context.Context) ([]model.Room, error)
	Doctors(ctx context.Context) ([]model.Doctor, error)
}

// Snapshot is an immutable set of lookup collections captured at mount time.
type Snapshot struct {
	faculties    []model.Faculty
	facultyYears []model.FacultyYear
	semesters    []model.Semester
	rooms        []model.Room
	doctors      []model.Doctor
	errs         map[Domain]error
}

// New builds a snapshot from already loaded collections.
func New(faculties []model.Faculty, years []model.FacultyYear, semesters []model.Semester, rooms []model.Room, doctors []model.Doctor) *Snapshot {
	return &Snapshot{
		faculties:    slices.Clone(faculties),
		facultyYears: slices.Clone(years),
		semesters:    slices.Clone(semesters),
		rooms:        slices.Clone(rooms),
		doctors:      slices.Clone(doctors),
		errs:         map[Domain]error{},
	}
}

// Empty is a snapshot with nothing loaded yet.
func Empty() *Snapshot { return New(nil, nil, nil, nil, nil) }

// Load fetches every lookup collection concurrently. A failing fetch leaves
// its collection empty and records the error; the others still load.
func Load(ctx context.Context, src Source) *Snapshot {
	var (
		fac  Result[model.Faculty]
		yrs  Result[model.FacultyYear]
		sems Result[model.Semester]
		rms  Result[model.Room]
		docs Result[model.Doctor]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { fac = Fetch(gctx, Faculties, src.Faculties); return nil })
	g.Go(func() error { yrs = Fetch(gctx, FacultyYears, src.FacultyYears); return nil })
	g.Go(func() error { sems = Fetch(gctx, Semesters, src.Semesters); return nil })
	g.Go(func() error { rms = Fetch(gctx, Rooms, src.Rooms); return nil })
	g.Go(func() error { docs = Fetch(gctx, Doctors, src.Doctors); return nil })
	_ = g.Wait()

	s := &Snapshot{
		faculties:    fac.Items,
		facultyYears: yrs.Items,
		semesters:    sems.Items,
		rooms:        rms.Items,
		doctors:      docs.Items,
		errs:         map[Domain]error{},
	}
	for d, err := range map[Domain]error{
		Faculties:    fac.Err,
		FacultyYears: yrs.Err,
		Semesters:    sems.Err,
		Rooms:        rms.Err,
		Doctors:      docs.Err,
	} {
		if err != nil {
			s.errs[d] = err
		}
	}
	return s
}

// Faculties returns a copy of the faculty list.
func (s *Snapshot) Faculties() []model.Faculty { return slices.Clone(s.faculties) }

// FacultyYears returns a copy of the faculty-year list.
func (s *Snapshot) FacultyYears() []model.FacultyYear { return slices.Clone(s.facultyYears) }

// Semesters returns a copy of the semester list.
func (s *Snapshot) Semesters() []model.Semester { return slices.Clone(s.semesters) }

// Rooms returns a copy of the room list.
func (s *Snapshot) Rooms() []model.Room { return slices.Clone(s.rooms) }

// Doctors returns a copy of the doctor list.
func (s *Snapshot) Doctors() []model.Doctor { return slices.Clone(s.doctors) }

// Err returns the fetch error for d, if any.
func (s *Snapshot) Err(d Domain) error { return s.errs[d] }

// Errors returns every recorded fetch error.
func (s *Snapshot) Errors() map[Domain]error {
	out := make(map[Domain]error, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Faculty finds a faculty by id.
func (s *Snapshot) Faculty(id int) (model.Faculty, bool) {
	for _, f := range s.faculties {
		if f.ID == id {
			return f, true
		}
	}
	return model.Faculty{}, false
}

// FacultyByName finds a faculty by display name.
func (s *Snapshot) FacultyByName(name string) (model.Faculty, bool) {
	for _, f := range s.faculties {
		if f.Name == name {
			return f, true
		}
	}
	return model.Faculty{}, false
}

// FacultyYear finds a faculty year by id.
func (s *Snapshot) FacultyYear(id int) (model.FacultyYear, bool) {
	for _, y := range s.facultyYears {
		if y.ID == id {
			return y, true
		}
	}
	return model.FacultyYear{}, false
}

// Semester finds a semester by id.
func (s *Snapshot) Semester(id int) (model.Semester, bool) {
	for _, sem := range s.semesters {
		if sem.ID == id {
			return sem, true
		}
	}
	return model.Semester{}, false
}

// Room finds a room by id.
func (s *Snapshot) Room(id int) (model.Room, bool) {
	for _, r := range s.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return model.Room{}, false
}

// Doctor finds a doctor by id.
func (s *Snapshot) Doctor(id int) (model.Doctor, bool) {
	for _, d := range s.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return model.Doctor{}, false
}

// DoctorByName finds a doctor by either spelling of the name.
func (s *Snapshot) DoctorByName(name string) (model.Doctor, bool) {
	for _, d := range s.doctors {
		if d.HasName(name) {
			return d, true
		}
	}
	return model.Doctor{}, false
}
