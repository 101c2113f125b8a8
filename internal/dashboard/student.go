package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fingerattend/internal/attendance"
	"fingerattend/internal/filter"
	"fingerattend/internal/join"
	"fingerattend/internal/model"
	"fingerattend/internal/notify"
	"fingerattend/internal/refdata"
	"fingerattend/internal/schedule"
	"fingerattend/internal/sensor"
	"fingerattend/internal/session"
	"fingerattend/internal/weekday"
)

// Student dashboard tabs besides the shared ones.
const (
	TabFingerprintLog Tab = "fingerprintLog"
	TabNotifications  Tab = "notifications"
)

var studentTabs = []tabInfo{
	{TabDashboard, "Dashboard"},
	{TabProfile, "Profile"},
	{TabCourses, "My Courses"},
	{TabFingerprintLog, "Fingerprint Log"},
	{TabSchedule, "Schedule"},
	{TabNotifications, "Notifications"},
	{TabSettings, "Settings"},
}

var studentDomains = []Domain{Reference, Profile, Courses, Schedule, Attendance, Notifications}

// Filter keys understood by the student dashboard besides FilterDay and
// FilterStanding.
const (
	FilterResult   = "result"
	FilterLocation = "location"
)

// Scanner runs a fingerprint scan.
type Scanner interface {
	Match(ctx context.Context) (sensor.MatchResult, error)
}

// Student is the view controller of one student's dashboard.
type Student struct {
	controller

	sess    *session.Session
	src     Source
	scanner Scanner
	cfg     Config

	snap          *refdata.Snapshot
	profile       model.Student
	hasProfile    bool
	subjects      []model.Subject
	lectures      []model.Lecture
	logs          []model.AttendanceLog
	notifications []model.Notification
	scanned       bool
}

// NewStudent creates the dashboard of sess.
func NewStudent(parent context.Context, sess *session.Session, src Source, scanner Scanner, cfg Config) *Student {
	v := &Student{sess: sess, src: src, scanner: scanner, cfg: cfg, snap: refdata.Empty()}
	v.init(parent, "student", studentTabs)
	return v
}

// Mount loads every domain concurrently and returns once all have settled.
// The scanned-today flag set by Scan is reset.
func (v *Student) Mount(ctx context.Context) {
	v.mu.Lock()
	v.scanned = false
	v.mu.Unlock()
	v.load(ctx)
}

// Reload refetches every domain.
func (v *Student) Reload(ctx context.Context) { v.load(ctx) }

func (v *Student) load(ctx context.Context) {
	lctx, done, gen, ok := v.begin(ctx, studentDomains)
	if !ok {
		return
	}
	defer done()

	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() error {
		snap := refdata.Load(gctx, v.src)
		var errs []error
		for _, err := range snap.Errors() {
			errs = append(errs, err)
		}
		v.settle(gen, Reference, errors.Join(errs...), func() { v.snap = snap })
		return nil
	})
	g.Go(func() error {
		s, err := refdata.FetchOne(gctx, refdata.Domain(Profile), func(ctx context.Context) (model.Student, error) {
			return v.src.StudentByEmail(ctx, v.sess.Email)
		})
		v.settle(gen, Profile, err, func() { v.profile, v.hasProfile = s, err == nil })
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
		items, err := fetchList(gctx, Attendance, v.src.AttendanceLogs)
		v.settle(gen, Attendance, err, func() { v.logs = items })
		return nil
	})
	g.Go(func() error {
		items, err := fetchList(gctx, Notifications, v.src.Notifications)
		v.settle(gen, Notifications, err, func() { v.notifications = items })
		return nil
	})
	_ = g.Wait()
}

// Update applies a UI state change. A language change is persisted in the
// session.
func (v *Student) Update(ctx context.Context, ch Change) error {
	if ch.Language != nil {
		if err := v.sess.SetLanguage(ctx, *ch.Language); err != nil {
			return err
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.apply(ch)
}

// CourseRow is an enrolled course with its attendance.
type CourseRow struct {
	join.Subject
	Attended int                 `json:"attended"`
	Total    int                 `json:"total"`
	Percent  int                 `json:"percentage"`
	Standing attendance.Standing `json:"standing"`
}

// StudentView is everything the student dashboard renders.
type StudentView struct {
	Status
	Language              string                `json:"language"`
	Profile               *join.Student         `json:"profile"`
	Summary               attendance.Summary    `json:"summary"`
	LowCourses            int                   `json:"lowAttendanceCourses"`
	FingerprintRegistered bool                  `json:"fingerprintRegistered"`
	ScannedToday          bool                  `json:"scannedToday"`
	TodaySessions         []join.Lecture        `json:"todaySessions"`
	Courses               []CourseRow           `json:"courses"`
	Logs                  []model.AttendanceLog `json:"fingerprintLog"`
	Schedule              []schedule.Day        `json:"schedule"`
	ActiveDay             weekday.Day           `json:"activeDay"`
	DaySessions           []join.Lecture        `json:"daySessions"`
	Notifications         []model.Notification  `json:"notifications"`
	Unread                int                   `json:"unread"`
}

var (
	courseRowFields = []filter.Field[CourseRow]{
		func(c CourseRow) string { return c.Name },
		func(c CourseRow) string { return c.Code },
		func(c CourseRow) string { return c.DoctorName },
	}
	logFields = []filter.Field[model.AttendanceLog]{
		func(l model.AttendanceLog) string { return l.Date },
		func(l model.AttendanceLog) string { return l.Location },
		func(l model.AttendanceLog) string { return l.SubjectCode },
		func(l model.AttendanceLog) string { return string(l.Result) },
	}
)

func logResult(l model.AttendanceLog) string { return string(l.Result) }

func logLocation(l model.AttendanceLog) string { return l.Location }

// View derives the dashboard from the collections loaded so far. Course
// standings are recomputed from the current logs on every call.
func (v *Student) View() StudentView {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.cfg.now()
	out := StudentView{Status: v.status(), Language: v.sess.Language()}
	r := v.cfg.resolver(v.snap, v.subjects)
	calc := v.cfg.calculator()
	q := v.query

	if v.hasProfile {
		p := r.Student(v.profile)
		out.Profile = &p
		out.FingerprintRegistered = attendance.FingerprintRegistered(v.profile)
	}

	logs := v.ownLogs()
	out.Summary = attendance.Summarize(logs)
	out.ScannedToday = v.scanned || attendance.ScannedToday(logs, now)
	out.Logs = filter.Apply(logs, q, logFields,
		filter.Eq(v.filterValue(FilterResult), logResult),
		filter.Contains(v.filterValue(FilterLocation), logLocation),
	)

	enrolled, ids := v.enrolled()
	rows := make([]CourseRow, 0, len(enrolled))
	stats := make([]attendance.CourseStat, 0, len(enrolled))
	for _, s := range r.Subjects(enrolled) {
		st := calc.Course(logs, s.Code)
		stats = append(stats, st)
		rows = append(rows, CourseRow{Subject: s, Attended: st.Attended, Total: st.Total, Percent: st.Percent, Standing: st.Standing})
	}
	out.LowCourses = calc.LowCount(stats)
	out.Courses = filter.Apply(rows, q, courseRowFields,
		filter.Eq(v.filterValue(FilterStanding), func(c CourseRow) string {
			return string(calc.Standing(attendance.Percent(c.Attended, c.Total)))
		}),
	)

	var own []model.Lecture
	for _, l := range v.lectures {
		if ids[l.SubjectID] {
			own = append(own, l)
		}
	}
	lectures := r.Lectures(own)
	out.Schedule = schedule.ByDay(lectures)
	out.TodaySessions = schedule.ForDay(lectures, weekday.Of(now))
	out.ActiveDay = schedule.ActiveDay(lectures, weekday.Of(now))
	if d := weekday.Parse(v.filterValue(FilterDay)); d.Valid() {
		out.ActiveDay = d
	}
	out.DaySessions = schedule.ForDay(lectures, out.ActiveDay)

	out.Notifications = notify.Overlay(v.visibleNotifications(), v.sess.ReadIDs())
	out.Unread = notify.Unread(out.Notifications)
	return out
}

// ownLogs keeps the logs of the signed-in student. Logs that name no student
// are kept. Caller holds mu.
func (v *Student) ownLogs() []model.AttendanceLog {
	out := make([]model.AttendanceLog, 0, len(v.logs))
	for _, l := range v.logs {
		ref := strings.TrimSpace(l.StudentRef)
		if ref == "" || (v.hasProfile && strings.EqualFold(ref, strings.TrimSpace(v.profile.Code))) {
			out = append(out, l)
		}
	}
	return out
}

// enrolled returns the subjects of the student's semester. Caller holds mu.
func (v *Student) enrolled() ([]model.Subject, map[int]bool) {
	ids := map[int]bool{}
	var out []model.Subject
	if !v.hasProfile {
		return out, ids
	}
	for _, s := range v.subjects {
		if s.SemesterID == v.profile.SemesterID {
			out = append(out, s)
			ids[s.ID] = true
		}
	}
	return out, ids
}

// visibleNotifications are the ones addressed to the student's semester.
// Caller holds mu.
func (v *Student) visibleNotifications() []model.Notification {
	if !v.hasProfile {
		return []model.Notification{}
	}
	return notify.ForSemester(v.notifications, v.profile.SemesterID)
}

// ToggleNotification flips the local read mark of id and persists it.
func (v *Student) ToggleNotification(ctx context.Context, id int) error {
	if id <= 0 {
		return errors.New("notification id must be positive")
	}
	return v.sess.UpdateReadIDs(ctx, func(read map[int]bool) map[int]bool {
		return notify.Toggle(read, id)
	})
}

// ReadAll marks every visible notification read and persists the set.
func (v *Student) ReadAll(ctx context.Context) error {
	v.mu.Lock()
	list := v.visibleNotifications()
	v.mu.Unlock()
	return v.sess.UpdateReadIDs(ctx, func(read map[int]bool) map[int]bool {
		return notify.MarkAll(read, list)
	})
}

// Scan runs a fingerprint scan. A match sets the scanned-today flag until
// the next mount.
func (v *Student) Scan(ctx context.Context) (sensor.MatchResult, error) {
	if v.isClosed() {
		return sensor.MatchResult{}, context.Canceled
	}
	res, err := v.scanner.Match(ctx)
	if err != nil {
		return sensor.MatchResult{}, err
	}
	if res.Success {
		v.mu.Lock()
		v.scanned = true
		v.mu.Unlock()
	}
	return res, nil
}

// Report is the printable attendance summary.
type Report struct {
	Name           string `json:"name"`
	TotalCourses   int    `json:"totalCourses"`
	AttendanceRate int    `json:"attendanceRate"`
	Date           string `json:"date"`
}

// Report summarises the student's attendance as of now.
func (v *Student) Report() Report {
	v.mu.Lock()
	defer v.mu.Unlock()
	enrolled, _ := v.enrolled()
	rep := Report{
		Name:           join.NoValue,
		TotalCourses:   len(enrolled),
		AttendanceRate: attendance.Summarize(v.ownLogs()).Percentage,
		Date:           v.cfg.now().Format(time.DateOnly),
	}
	if v.hasProfile {
		rep.Name = v.profile.DisplayName()
	}
	return rep
}
