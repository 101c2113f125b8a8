package mutate

import (
	"fmt"
	"strings"

	"fingerattend/internal/backend"
	"fingerattend/internal/model"
	"fingerattend/internal/weekday"
)

// Form is an editable entity. Values is keyed by form field name; the wire
// names come from the per-entity mapping table.
type Form interface {
	Entity() backend.Entity
	Values() map[string]any
}

// wireNames maps form field names to the backend's field names.
var wireNames = map[backend.Entity]map[string]string{
	backend.EntitySubject: {
		"id":         "id",
		"code":       "sub_Code",
		"name":       "sub_Name",
		"doctorId":   "dr_ID",
		"semesterId": "facYearSem_ID",
		"roomId":     "room_ID",
	},
	backend.EntityRoom: {
		"id":     "id",
		"number": "room_Num",
	},
	backend.EntityLecture: {
		"id":        "id",
		"name":      "lecture_Name",
		"subjectId": "sub_ID",
		"day":       "day",
		"from":      "fromTime",
		"to":        "toTime",
		"roomId":    "room_ID",
	},
	backend.EntityDoctor: {
		"id":        "id",
		"code":      "dr_Code",
		"nameAr":    "dr_NameAr",
		"nameEn":    "dr_NameEn",
		"email":     "dr_Email",
		"phone":     "phone",
		"image":     "dr_Image",
		"facultyId": "fac_ID",
	},
	backend.EntityStudent: {
		"id":            "ID",
		"code":          "St_Code",
		"nameAr":        "St_NameAr",
		"nameEn":        "St_NameEn",
		"email":         "St_Email",
		"image":         "St_Image",
		"phone":         "Phone",
		"fingerId":      "FingerID",
		"semesterId":    "FacYearSem_ID",
		"semesterLabel": "FacultyYearSemister",
	},
}

// Wire renames a form's values to the backend's field names. Values without
// a mapping are dropped.
func Wire(f Form) (map[string]any, error) {
	names, ok := wireNames[f.Entity()]
	if !ok {
		return nil, fmt.Errorf("no wire mapping for %s", f.Entity())
	}
	out := make(map[string]any, len(names))
	for k, v := range f.Values() {
		if w, ok := names[k]; ok {
			out[w] = v
		}
	}
	return out, nil
}

// SubjectForm creates or updates a subject. Faculty and year only drive the
// cascading selects; the backend stores the semester.
type SubjectForm struct {
	ID         int    `json:"id"`
	Name       string `json:"name" validate:"required"`
	Code       string `json:"code" validate:"required"`
	FacultyID  int    `json:"facultyId" validate:"required"`
	YearID     int    `json:"yearId" validate:"required"`
	SemesterID int    `json:"semesterId" validate:"required"`
	DoctorID   int    `json:"doctorId" validate:"required"`
	RoomID     int    `json:"roomId" validate:"required"`
}

func (SubjectForm) Entity() backend.Entity { return backend.EntitySubject }

func (f SubjectForm) Values() map[string]any {
	return map[string]any{
		"id":         f.ID,
		"code":       strings.TrimSpace(f.Code),
		"name":       strings.TrimSpace(f.Name),
		"doctorId":   f.DoctorID,
		"semesterId": f.SemesterID,
		"roomId":     f.RoomID,
	}
}

// RoomForm creates or updates a room.
type RoomForm struct {
	ID     int    `json:"id"`
	Number string `json:"number" validate:"required"`
}

func (RoomForm) Entity() backend.Entity { return backend.EntityRoom }

func (f RoomForm) Values() map[string]any {
	return map[string]any{"id": f.ID, "number": strings.TrimSpace(f.Number)}
}

// LectureForm creates or updates a weekly lecture. Times are "HH:MM".
type LectureForm struct {
	ID          int         `json:"id"`
	SubjectID   int         `json:"subjectId" validate:"required"`
	SubjectName string      `json:"subjectName"`
	Day         weekday.Day `json:"day" validate:"required"`
	From        string      `json:"from" validate:"required"`
	To          string      `json:"to" validate:"required"`
	RoomID      int         `json:"roomId"`
}

func (LectureForm) Entity() backend.Entity { return backend.EntityLecture }

func (f LectureForm) Values() map[string]any {
	v := map[string]any{
		"id":        f.ID,
		"name":      LectureName(f.SubjectName, f.Day),
		"subjectId": f.SubjectID,
		"day":       f.Day.Number(),
		"from":      weekday.WireClock(f.From),
		"to":        weekday.WireClock(f.To),
	}
	if f.RoomID > 0 {
		v["roomId"] = f.RoomID
	}
	return v
}

// LectureName is the display name the backend stores for a lecture.
func LectureName(subject string, d weekday.Day) string {
	return fmt.Sprintf("%s - %s", strings.TrimSpace(subject), d)
}

// DoctorForm creates or updates a doctor.
type DoctorForm struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	NameAr    string `json:"nameAr" validate:"required"`
	NameEn    string `json:"nameEn"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Image     string `json:"image"`
	FacultyID int    `json:"facultyId" validate:"required"`
}

func (DoctorForm) Entity() backend.Entity { return backend.EntityDoctor }

func (f DoctorForm) Values() map[string]any {
	return map[string]any{
		"id":        f.ID,
		"code":      strings.TrimSpace(f.Code),
		"nameAr":    strings.TrimSpace(f.NameAr),
		"nameEn":    nullable(f.NameEn),
		"email":     strings.TrimSpace(f.Email),
		"phone":     strings.TrimSpace(f.Phone),
		"image":     nullable(f.Image),
		"facultyId": f.FacultyID,
	}
}

// DoctorFormOf prefills a form from a loaded doctor.
func DoctorFormOf(d model.Doctor) DoctorForm {
	return DoctorForm{
		ID: d.ID, Code: d.Code, NameAr: d.NameAr, NameEn: d.NameEn,
		Email: d.Email, Phone: d.Phone, Image: d.Image, FacultyID: d.FacultyID,
	}
}

// StudentForm updates a student. Students are only ever updated, never
// created, from the dashboards.
type StudentForm struct {
	ID            int    `json:"id" validate:"required"`
	Code          string `json:"code"`
	NameAr        string `json:"nameAr"`
	NameEn        string `json:"nameEn"`
	Email         string `json:"email" validate:"required,email"`
	Image         string `json:"image"`
	Phone         string `json:"phone"`
	FingerID      int    `json:"fingerId"`
	SemesterID    int    `json:"semesterId"`
	SemesterLabel string `json:"semesterLabel"`
}

func (StudentForm) Entity() backend.Entity { return backend.EntityStudent }

func (f StudentForm) Values() map[string]any {
	return map[string]any{
		"id":            f.ID,
		"code":          f.Code,
		"nameAr":        f.NameAr,
		"nameEn":        nullable(f.NameEn),
		"email":         f.Email,
		"image":         nullable(f.Image),
		"phone":         f.Phone,
		"fingerId":      f.FingerID,
		"semesterId":    f.SemesterID,
		"semesterLabel": f.SemesterLabel,
	}
}

// StudentFormOf prefills a form from a loaded student.
func StudentFormOf(s model.Student) StudentForm {
	return StudentForm{
		ID: s.ID, Code: s.Code, NameAr: s.NameAr, NameEn: s.NameEn,
		Email: s.Email, Image: s.Image, Phone: s.Phone, FingerID: s.FingerID,
		SemesterID: s.SemesterID, SemesterLabel: s.SemesterLabel,
	}
}

// nullable sends blank optional strings as JSON null.
func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
