// Package join resolves the foreign keys between backend collections into
// flat, display-ready records. Lookups are linear scans over the reference
// snapshot; a miss yields a fallback literal, never an error. Resolution is
// pure: neither the snapshot nor the input records are modified.
//
// When a payload carries both an inlined value (room_Num, doctor, faculty…)
// and an id reference, the inlined value wins.
package join

import (
	"strings"

	"fingerattend/internal/model"
	"fingerattend/internal/refdata"
	"fingerattend/internal/weekday"
)

// Fallback literals used when a reference does not resolve.
const (
	NoValue      = "-"
	NotAvailable = "N/A"
	ToBeDecided  = "TBD"
	DefaultRoom  = "Main Campus"
)

// Subject is a subject with every reference resolved to a display value.
type Subject struct {
	ID           int    `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DoctorID     int    `json:"doctorId"`
	DoctorName   string `json:"doctor"`
	DoctorEmail  string `json:"doctorEmail,omitempty"`
	SemesterID   int    `json:"semesterId"`
	SemesterName string `json:"semester"`
	YearID       int    `json:"yearId"`
	YearLabel    string `json:"year"`
	FacultyID    int    `json:"facultyId"`
	FacultyName  string `json:"faculty"`
	RoomID       int    `json:"roomId"`
	RoomName     string `json:"room"`
}

// Lecture is a lecture resolved through its subject.
type Lecture struct {
	ID          int         `json:"id"`
	Name        string      `json:"name,omitempty"`
	SubjectID   int         `json:"subjectId"`
	SubjectName string      `json:"course"`
	SubjectCode string      `json:"courseCode"`
	DoctorName  string      `json:"instructor"`
	FacultyName string      `json:"faculty"`
	YearLabel   string      `json:"year"`
	Day         weekday.Day `json:"day"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Room        string      `json:"location"`
}

// Doctor is a doctor with the faculty name resolved.
type Doctor struct {
	model.Doctor
	DisplayName string `json:"displayName"`
	Faculty     string `json:"faculty"`
}

// Student is a student with the semester chain resolved.
type Student struct {
	model.Student
	DisplayName string `json:"displayName"`
	Semester    string `json:"semester"`
	YearLabel   string `json:"year"`
	FacultyName string `json:"faculty"`
}

// Resolver joins records against one reference snapshot and subject list.
type Resolver struct {
	snap        *refdata.Snapshot
	subjects    []model.Subject
	defaultRoom string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultRoom sets the placeholder used when no room resolves.
func WithDefaultRoom(name string) Option {
	return func(r *Resolver) {
		if strings.TrimSpace(name) != "" {
			r.defaultRoom = name
		}
	}
}

// New creates a resolver. A nil snapshot behaves like an empty one.
func New(snap *refdata.Snapshot, subjects []model.Subject, opts ...Option) *Resolver {
	if snap == nil {
		snap = refdata.Empty()
	}
	r := &Resolver{snap: snap, subjects: subjects, defaultRoom: DefaultRoom}
	for _, o := range opts {
		o(r)
	}
	return r
}

// DefaultRoom returns the configured placeholder room name.
func (r *Resolver) DefaultRoom() string { return r.defaultRoom }

// RoomName resolves the effective room of a subject.
func (r *Resolver) RoomName(s model.Subject) string {
	if name, ok := r.room(s.RoomNumber, s.RoomID); ok {
		return name
	}
	return r.defaultRoom
}

func (r *Resolver) room(direct string, id int) (string, bool) {
	if d := strings.TrimSpace(direct); d != "" {
		return d, true
	}
	if id == 0 {
		return "", false
	}
	if room, ok := r.snap.Room(id); ok && room.Number != "" {
		return room.Number, true
	}
	return "", false
}

// DoctorName resolves the teaching doctor of a subject.
func (r *Resolver) DoctorName(s model.Subject) string {
	if s.DoctorName != "" {
		return s.DoctorName
	}
	if d, ok := r.snap.Doctor(s.DoctorID); ok {
		return d.DisplayName()
	}
	return ToBeDecided
}

func (r *Resolver) doctorOf(s model.Subject) (model.Doctor, bool) {
	if s.DoctorID != 0 {
		if d, ok := r.snap.Doctor(s.DoctorID); ok {
			return d, true
		}
	}
	return r.snap.DoctorByName(s.DoctorName)
}

// YearOfSemester follows semester → faculty year.
func (r *Resolver) YearOfSemester(semesterID int) (model.FacultyYear, bool) {
	sem, ok := r.snap.Semester(semesterID)
	if !ok {
		return model.FacultyYear{}, false
	}
	return r.snap.FacultyYear(sem.FacultyYearID)
}

// FacultyOfSemester follows semester → faculty year → faculty.
func (r *Resolver) FacultyOfSemester(semesterID int) (model.Faculty, bool) {
	year, ok := r.YearOfSemester(semesterID)
	if !ok {
		return model.Faculty{}, false
	}
	return r.snap.Faculty(year.FacultyID)
}

// Subject resolves every reference of s.
func (r *Resolver) Subject(s model.Subject) Subject {
	out := Subject{
		ID:           s.ID,
		Code:         orDefault(s.Code, NoValue),
		Name:         orDefault(s.Name, NoValue),
		DoctorID:     s.DoctorID,
		DoctorName:   r.DoctorName(s),
		SemesterID:   s.SemesterID,
		SemesterName: NoValue,
		YearLabel:    NoValue,
		FacultyName:  NotAvailable,
		RoomID:       s.RoomID,
		RoomName:     r.RoomName(s),
	}
	if d, ok := r.doctorOf(s); ok {
		out.DoctorEmail = d.Email
		if out.DoctorID == 0 {
			out.DoctorID = d.ID
		}
	}
	if sem, ok := r.snap.Semester(s.SemesterID); ok {
		out.SemesterName = orDefault(sem.Name, NoValue)
	}
	if year, ok := r.YearOfSemester(s.SemesterID); ok {
		out.YearID = year.ID
		out.YearLabel = orDefault(year.Year, NoValue)
		if fac, ok := r.snap.Faculty(year.FacultyID); ok {
			out.FacultyID = fac.ID
			out.FacultyName = orDefault(fac.Name, NotAvailable)
		}
	}
	if s.SemesterName != "" {
		out.SemesterName = s.SemesterName
	}
	if s.YearLabel != "" {
		out.YearLabel = s.YearLabel
	}
	if s.FacultyName != "" {
		out.FacultyName = s.FacultyName
	}
	return out
}

// Subjects resolves a list of subjects, preserving order.
func (r *Resolver) Subjects(list []model.Subject) []Subject {
	out := make([]Subject, 0, len(list))
	for _, s := range list {
		out = append(out, r.Subject(s))
	}
	return out
}

// subject finds a subject of the resolver's list by id.
func (r *Resolver) subject(id int) (model.Subject, bool) {
	for _, s := range r.subjects {
		if s.ID == id {
			return s, true
		}
	}
	return model.Subject{}, false
}

// Lecture resolves a lecture through its subject. The room is the lecture's
// own room when set, else the subject's room, else the default room.
func (r *Resolver) Lecture(l model.Lecture) Lecture {
	out := Lecture{
		ID:          l.ID,
		Name:        l.Name,
		SubjectID:   l.SubjectID,
		SubjectName: NoValue,
		SubjectCode: NoValue,
		DoctorName:  ToBeDecided,
		FacultyName: NotAvailable,
		YearLabel:   NoValue,
		Day:         l.Day,
		From:        l.From,
		To:          l.To,
		Room:        r.defaultRoom,
	}

	subj, hasSubject := r.subject(l.SubjectID)
	if hasSubject {
		js := r.Subject(subj)
		out.SubjectName = js.Name
		out.SubjectCode = js.Code
		out.DoctorName = js.DoctorName
		out.FacultyName = js.FacultyName
		out.YearLabel = js.YearLabel
	}

	if name, ok := r.room(l.RoomNumber, l.RoomID); ok {
		out.Room = name
	} else if hasSubject {
		out.Room = r.RoomName(subj)
	}

	if l.SubjectName != "" {
		out.SubjectName = l.SubjectName
	}
	if l.DoctorName != "" {
		out.DoctorName = l.DoctorName
	}
	if l.FacultyName != "" {
		out.FacultyName = l.FacultyName
	}
	return out
}

// Lectures resolves a list of lectures, preserving order.
func (r *Resolver) Lectures(list []model.Lecture) []Lecture {
	out := make([]Lecture, 0, len(list))
	for _, l := range list {
		out = append(out, r.Lecture(l))
	}
	return out
}

// Doctor resolves the faculty name of d.
func (r *Resolver) Doctor(d model.Doctor) Doctor {
	out := Doctor{Doctor: d, DisplayName: d.DisplayName(), Faculty: NotAvailable}
	if f, ok := r.snap.Faculty(d.FacultyID); ok && f.Name != "" {
		out.Faculty = f.Name
	}
	if d.FacultyName != "" {
		out.Faculty = d.FacultyName
	}
	return out
}

// Doctors resolves a list of doctors, preserving order.
func (r *Resolver) Doctors(list []model.Doctor) []Doctor {
	out := make([]Doctor, 0, len(list))
	for _, d := range list {
		out = append(out, r.Doctor(d))
	}
	return out
}

// Student resolves the semester chain of s.
func (r *Resolver) Student(s model.Student) Student {
	out := Student{
		Student:     s,
		DisplayName: s.DisplayName(),
		Semester:    NoValue,
		YearLabel:   NoValue,
		FacultyName: NotAvailable,
	}
	if sem, ok := r.snap.Semester(s.SemesterID); ok {
		out.Semester = orDefault(sem.Name, NoValue)
	}
	if s.SemesterLabel != "" {
		out.Semester = s.SemesterLabel
	}
	if year, ok := r.YearOfSemester(s.SemesterID); ok {
		out.YearLabel = orDefault(year.Year, NoValue)
	}
	if fac, ok := r.FacultyOfSemester(s.SemesterID); ok {
		out.FacultyName = orDefault(fac.Name, NotAvailable)
	}
	return out
}

// Students resolves a list of students, preserving order.
func (r *Resolver) Students(list []model.Student) []Student {
	out := make([]Student, 0, len(list))
	for _, s := range list {
		out = append(out, r.Student(s))
	}
	return out
}

// YearsOfFaculty lists the years of one faculty.
func (r *Resolver) YearsOfFaculty(facultyID int) []model.FacultyYear {
	var out []model.FacultyYear
	for _, y := range r.snap.FacultyYears() {
		if y.FacultyID == facultyID {
			out = append(out, y)
		}
	}
	return out
}

// SemestersOfYear lists the semesters of one faculty year.
func (r *Resolver) SemestersOfYear(yearID int) []model.Semester {
	var out []model.Semester
	for _, s := range r.snap.Semesters() {
		if s.FacultyYearID == yearID {
			out = append(out, s)
		}
	}
	return out
}

// DoctorsOfFaculty lists the doctors of one faculty.
func (r *Resolver) DoctorsOfFaculty(facultyID int) []model.Doctor {
	var out []model.Doctor
	for _, d := range r.snap.Doctors() {
		if d.FacultyID == facultyID {
			out = append(out, d)
		}
	}
	return out
}

// SemestersOfFaculty returns the ids of every semester under a faculty.
func (r *Resolver) SemestersOfFaculty(facultyID int) map[int]bool {
	out := map[int]bool{}
	for _, y := range r.YearsOfFaculty(facultyID) {
		for _, s := range r.SemestersOfYear(y.ID) {
			out[s.ID] = true
		}
	}
	return out
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
