package model

import (
	"strings"

	"fingerattend/internal/weekday"
)

// Faculty is the root of the organisational hierarchy.
type Faculty struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FacultyYear is an academic year level within a faculty.
type FacultyYear struct {
	ID        int    `json:"id"`
	FacultyID int    `json:"facultyId"`
	Year      string `json:"year"`
}

// Semester is a term scoped to one faculty year.
type Semester struct {
	ID            int    `json:"id"`
	FacultyYearID int    `json:"facultyYearId"`
	Name          string `json:"name"`
}

// Room is a teaching room referenced by subjects and lectures.
type Room struct {
	ID     int    `json:"id"`
	Number string `json:"number"`
}

// Doctor is a faculty member.
type Doctor struct {
	ID          int    `json:"id"`
	Code        string `json:"code,omitempty"`
	NameAr      string `json:"nameAr"`
	NameEn      string `json:"nameEn"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Image       string `json:"image,omitempty"`
	FacultyID   int    `json:"facultyId"`
	FacultyName string `json:"facultyName,omitempty"`
}

// DisplayName prefers the English name, then the Arabic one.
func (d Doctor) DisplayName() string {
	return displayName(d.NameEn, d.NameAr)
}

// HasName reports whether name equals either spelling of the doctor's name.
func (d Doctor) HasName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return strings.TrimSpace(d.NameAr) == name || strings.TrimSpace(d.NameEn) == name
}

// Subject is a teachable unit of one semester.
//
// The string fields after RoomID hold values the backend inlined into the
// payload; they are empty when the payload only carried ids.
type Subject struct {
	ID         int    `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	DoctorID   int    `json:"doctorId"`
	SemesterID int    `json:"semesterId"`
	RoomID     int    `json:"roomId"`

	RoomNumber   string `json:"roomNumber,omitempty"`
	DoctorName   string `json:"doctorName,omitempty"`
	FacultyName  string `json:"facultyName,omitempty"`
	YearLabel    string `json:"yearLabel,omitempty"`
	SemesterName string `json:"semesterName,omitempty"`
}

// Lecture is one weekly recurring timeslot of a subject. From and To are
// zero-padded "HH:MM".
type Lecture struct {
	ID        int         `json:"id"`
	Name      string      `json:"name,omitempty"`
	SubjectID int         `json:"subjectId"`
	Day       weekday.Day `json:"day"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	RoomID    int         `json:"roomId,omitempty"`

	SubjectName string `json:"subjectName,omitempty"`
	RoomNumber  string `json:"roomNumber,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	FacultyName string `json:"facultyName,omitempty"`
}

// Student is an enrolled student.
type Student struct {
	ID            int    `json:"id"`
	Code          string `json:"code"`
	NameAr        string `json:"nameAr"`
	NameEn        string `json:"nameEn"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Image         string `json:"image,omitempty"`
	SemesterID    int    `json:"semesterId"`
	SemesterLabel string `json:"semesterLabel,omitempty"`
	FingerID      int    `json:"fingerId"`
}

// DisplayName prefers the English name, then the Arabic one.
func (s Student) DisplayName() string {
	return displayName(s.NameEn, s.NameAr)
}

// FingerprintRegistered reports whether a fingerprint is linked.
func (s Student) FingerprintRegistered() bool { return s.FingerID > 0 }

// Result is the outcome of a fingerprint scan.
type Result string

const (
	ResultSuccess Result = "Success"
	ResultFailed  Result = "Failed"
)

// AttendanceLog is one recorded scan attempt.
type AttendanceLog struct {
	StudentRef  string `json:"studentRef,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	SubjectCode string `json:"courseCode"`
	Result      Result `json:"result"`
}

// Notification is a semester-wide announcement.
type Notification struct {
	ID         int    `json:"id"`
	SemesterID int    `json:"semesterId"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Date       string `json:"date"`
	IsRead     bool   `json:"isRead"`
}

func displayName(en, ar string) string {
	if s := strings.TrimSpace(en); s != "" {
		return s
	}
	if s := strings.TrimSpace(ar); s != "" {
		return s
	}
	return "Unknown"
}
