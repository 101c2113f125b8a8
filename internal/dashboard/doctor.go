package dashboard

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"fingerattend/internal/attendance"
	"fingerattend/internal/filter"
	"fingerattend/internal/join"
	"fingerattend/internal/model"
	"fingerattend/internal/mutate"
	"fingerattend/internal/refdata"
	"fingerattend/internal/schedule"
	"fingerattend/internal/session"
)

// Doctor dashboard tabs.
const (
	TabDashboard      Tab = "dashboard"
	TabProfile        Tab = "profile"
	TabCourses        Tab = "courses"
	TabStudents       Tab = "students"
	TabDoctors        Tab = "doctors-management"
	TabAttendance     Tab = "attendance"
	TabSchedule       Tab = "schedule"
	TabManageCourses  Tab = "manage-courses"
	TabManageSchedule Tab = "manage-schedule"
	TabSettings       Tab = "settings"
)

var doctorTabs = []tabInfo{
	{TabDashboard, "Dashboard"},
	{TabProfile, "Profile"},
	{TabCourses, "My Courses"},
	{TabStudents, "Students"},
	{TabDoctors, "Doctors Management"},
	{TabAttendance, "Attendance"},
	{TabSchedule, "Schedule"},
	{TabManageCourses, "Manage Courses"},
	{TabManageSchedule, "Manage Schedule"},
	{TabSettings, "Settings"},
}

var doctorDomains = []Domain{Reference, Doctors, Profile, Courses, Schedule, Students, Attendance}

// Filter keys understood by the doctor dashboard.
const (
	FilterDay      = "day"
	FilterYear     = "year"
	FilterFaculty  = "faculty"
	FilterStanding = "courseFilter"
)

// Doctor is the view controller of one doctor's dashboard.
type Doctor struct {
	controller

	sess *session.Session
	src  Source
	cfg  Config
	mut  *mutate.Mutator

	snap       *refdata.Snapshot
	profile    model.Doctor
	hasProfile bool
	subjects   []model.Subject
	lectures   []model.Lecture
	students   []model.Student
	logs       []model.AttendanceLog
}

// NewDoctor creates the dashboard of sess. Writes go through w and reload
// every domain on success.
func NewDoctor(parent context.Context, sess *session.Session, src Source, w mutate.Writer, cfg Config) *Doctor {
	v := &Doctor{sess: sess, src: src, cfg: cfg, snap: refdata.Empty()}
	v.init(parent, "doctor", doctorTabs)
	v.mut = mutate.New(w, v.Reload)
	return v
}

// Mount loads every domain concurrently and returns once all have settled.
func (v *Doctor) Mount(ctx context.Context) { v.load(ctx) }

// Reload refetches every domain.
func (v *Doctor) Reload(ctx context.Context) { v.load(ctx) }

func (v *Doctor) load(ctx context.Context) {
	lctx, done, gen, ok := v.begin(ctx, doctorDomains)
	if !ok {
		return
	}
	defer done()

	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() error {
		snap := refdata.Load(gctx, v.src)
		v.settle(gen, Reference, referenceErr(snap), func() { v.snap = snap })
		v.settle(gen, Doctors, snap.Err(refdata.Doctors), nil)
		return nil
	})
	g.Go(func() error {
		d, err := refdata.FetchOne(gctx, refdata.Domain(Profile), func(ctx context.Context) (model.Doctor, error) {
			return v.src.DoctorByEmail(ctx, v.sess.Email)
		})
		v.settle(gen, Profile, err, func() { v.profile, v.hasProfile = d, err == nil })
		return nil
	})
	g.Go(func() error {
		items, err := fetchList(gctx, Courses, v.src.Subjects)
		v.settle(gen, Courses, err, func() { v.subjects = items })
		return nil
	})
	g.Go(func() error {
		items, err := fetchList(gctx, Schedule, v.src.Lectures)
		v.settle(gen, Schedule, err, func() { v.lectures = items })
		return nil
	})
	g.Go(func() error {
		items, err := fetchList(gctx, Students, v.src.Students)
		v.settle(gen, Students, err, func() { v.students = items })
		return nil
	})
	g.Go(func() error {
		items, err := fetchList(gctx, Attendance, v.src.AttendanceLogs)
		v.settle(gen, Attendance, err, func() { v.logs = items })
		return nil
	})
	_ = g.Wait()
}

// Update applies a UI state change. A language change is persisted in the
// session.
func (v *Doctor) Update(ctx context.Context, ch Change) error {
	if ch.Language != nil {
		if err := v.sess.SetLanguage(ctx, *ch.Language); err != nil {
			return err
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.apply(ch)
}

// MutationState is the state of the last create/update/delete.
type MutationState struct {
	State  mutate.State        `json:"state"`
	Error  string              `json:"error,omitempty"`
	Fields []mutate.FieldError `json:"fields,omitempty"`
}

func mutationState(m *mutate.Mutator) MutationState {
	state, err := m.State()
	out := MutationState{State: state}
	var verr *mutate.ValidationError
	var merr *mutate.Error
	switch {
	case err == nil:
	case errors.As(err, &verr):
		out.Error, out.Fields = "Please fill in all required fields", verr.Fields
	case errors.As(err, &merr):
		out.Error = merr.Message()
	default:
		out.Error = err.Error()
	}
	return out
}

// DoctorView is everything the doctor dashboard renders.
type DoctorView struct {
	Status
	Language       string                  `json:"language"`
	Profile        *join.Doctor            `json:"profile"`
	Courses        []join.Subject          `json:"courses"`
	Schedule       []schedule.Faculty      `json:"schedule"`
	Students       []join.Student          `json:"students"`
	Attendance     []attendance.CourseStat `json:"attendance"`
	Doctors        []join.Doctor           `json:"doctors"`
	ManageCourses  []join.Subject          `json:"manageCourses"`
	ManageSchedule []schedule.Faculty      `json:"manageSchedule"`
	Mutation       MutationState           `json:"mutation"`
}

var (
	subjectFields = []filter.Field[join.Subject]{
		func(s join.Subject) string { return s.Name },
		func(s join.Subject) string { return s.Code },
		func(s join.Subject) string { return s.DoctorName },
	}
	manageSubjectFields = []filter.Field[join.Subject]{
		func(s join.Subject) string { return s.Name },
		func(s join.Subject) string { return s.DoctorName },
	}
	lectureFields = []filter.Field[join.Lecture]{
		func(l join.Lecture) string { return l.SubjectName },
		func(l join.Lecture) string { return l.SubjectCode },
		func(l join.Lecture) string { return l.DoctorName },
		func(l join.Lecture) string { return l.Room },
	}
	studentFields = []filter.Field[join.Student]{
		func(s join.Student) string { return s.DisplayName },
		func(s join.Student) string { return s.NameAr },
		func(s join.Student) string { return s.Code },
		func(s join.Student) string { return s.Email },
	}
	doctorFields = []filter.Field[join.Doctor]{
		func(d join.Doctor) string { return d.DisplayName },
		func(d join.Doctor) string { return d.NameAr },
		func(d join.Doctor) string { return d.Email },
	}
	statFields = []filter.Field[attendance.CourseStat]{
		func(s attendance.CourseStat) string { return s.Code },
	}
)

func lectureDay(l join.Lecture) string { return l.Day.String() }

func lectureFaculty(l join.Lecture) string { return l.FacultyName }

func lectureYear(l join.Lecture) string { return l.YearLabel }

func studentYear(s join.Student) string { return s.YearLabel }

func standingKey(calc *attendance.Calculator) func(attendance.CourseStat) string {
	return func(s attendance.CourseStat) string { return string(calc.Standing(s.Percent)) }
}

// View derives the dashboard from the collections loaded so far.
func (v *Doctor) View() DoctorView {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := DoctorView{Status: v.status(), Language: v.sess.Language(), Mutation: mutationState(v.mut)}
	r := v.cfg.resolver(v.snap, v.subjects)
	calc := v.cfg.calculator()
	q := v.query

	all := r.Subjects(v.subjects)
	mine := v.ownSubjects(all)
	if v.hasProfile {
		p := r.Doctor(v.profile)
		out.Profile = &p
	}
	out.Courses = filter.Apply(mine, q, subjectFields)
	out.ManageCourses = filter.Apply(all, q, manageSubjectFields)

	ids := map[int]bool{}
	codes := make([]string, 0, len(mine))
	for _, s := range mine {
		ids[s.ID] = true
		codes = append(codes, s.Code)
	}
	var own []model.Lecture
	for _, l := range v.lectures {
		if ids[l.SubjectID] {
			own = append(own, l)
		}
	}
	out.Schedule = schedule.Group(filter.Apply(r.Lectures(own), q, lectureFields,
		filter.Eq(v.filterValue(FilterDay), lectureDay),
	)).Ordered()
	out.ManageSchedule = schedule.Group(filter.Apply(r.Lectures(v.lectures), q, lectureFields,
		filter.Eq(v.filterValue(FilterFaculty), lectureFaculty),
		filter.Eq(v.filterValue(FilterYear), lectureYear),
	)).Ordered()

	var students []model.Student
	if v.hasProfile {
		sems := r.SemestersOfFaculty(v.profile.FacultyID)
		for _, s := range v.students {
			if sems[s.SemesterID] {
				students = append(students, s)
			}
		}
	}
	out.Students = filter.Apply(r.Students(students), q, studentFields,
		filter.Eq(v.filterValue(FilterYear), studentYear),
	)

	out.Attendance = filter.Apply(calc.Courses(v.logs, codes), q, statFields,
		filter.Eq(v.filterValue(FilterStanding), standingKey(calc)),
	)
	out.Doctors = filter.Apply(r.Doctors(v.snap.Doctors()), q, doctorFields)
	return out
}

// ownSubjects keeps the subjects taught by the signed-in doctor, matched by
// id or, when the payload only inlines a name, by either spelling of it.
func (v *Doctor) ownSubjects(all []join.Subject) []join.Subject {
	out := []join.Subject{}
	if !v.hasProfile {
		return out
	}
	for _, s := range all {
		if (s.DoctorID != 0 && s.DoctorID == v.profile.ID) || v.profile.HasName(s.DoctorName) {
			out = append(out, s)
		}
	}
	return out
}

// Options feeds the cascading selects of the course and lecture forms.
type Options struct {
	Faculties []model.Faculty     `json:"faculties"`
	Years     []model.FacultyYear `json:"years"`
	Semesters []model.Semester    `json:"semesters"`
	Doctors   []model.Doctor      `json:"doctors"`
	Rooms     []model.Room        `json:"rooms"`
	Subjects  []join.Subject      `json:"subjects"`
}

// Options lists the choices for a form with facultyID and yearID selected.
// Zero ids leave the dependent lists empty.
func (v *Doctor) Options(facultyID, yearID int) Options {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := v.cfg.resolver(v.snap, v.subjects)
	out := Options{
		Faculties: v.snap.Faculties(),
		Years:     []model.FacultyYear{},
		Semesters: []model.Semester{},
		Doctors:   []model.Doctor{},
		Rooms:     v.snap.Rooms(),
		Subjects:  r.Subjects(v.subjects),
	}
	if facultyID > 0 {
		out.Years = append(out.Years, r.YearsOfFaculty(facultyID)...)
		out.Doctors = append(out.Doctors, r.DoctorsOfFaculty(facultyID)...)
	}
	if yearID > 0 {
		out.Semesters = append(out.Semesters, r.SemestersOfYear(yearID)...)
	}
	return out
}

// Save creates or updates a record. Subjects are also checked for a
// duplicate name among the loaded ones.
func (v *Doctor) Save(ctx context.Context, f mutate.Form) error {
	if v.isClosed() {
		return context.Canceled
	}
	var checks []mutate.Check
	if _, ok := f.(mutate.SubjectForm); ok {
		v.mu.Lock()
		loaded := append([]model.Subject(nil), v.subjects...)
		v.mu.Unlock()
		checks = append(checks, mutate.UniqueSubjectName(loaded))
	}
	if lf, ok := f.(mutate.LectureForm); ok && strings.TrimSpace(lf.SubjectName) == "" {
		lf.SubjectName = v.subjectName(lf.SubjectID)
		f = lf
	}
	return v.mut.Save(ctx, f, checks...)
}

func (v *Doctor) subjectName(id int) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.subjects {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

// Delete removes a record once confirmed.
func (v *Doctor) Delete(ctx context.Context, req mutate.DeleteRequest) error {
	if v.isClosed() {
		return context.Canceled
	}
	return v.mut.Delete(ctx, req)
}

// DismissError clears the error of the last failed mutation.
func (v *Doctor) DismissError() { v.mut.Dismiss() }
