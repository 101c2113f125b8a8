package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"fingerattend/internal/model"
	"fingerattend/internal/weekday"
)

// clock decodes a TimeSpan sent either as "HH:MM[:SS]", as a tick count, or
// as {"ticks": n}.
type clock string

func (c *clock) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = clock(weekday.Clock(s))
	case '{':
		var v struct {
			Ticks int64 `json:"ticks"`
		}
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*c = clock(weekday.ClockFromTicks(v.Ticks))
	default:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return err
		}
		*c = clock(weekday.ClockFromTicks(n))
	}
	return nil
}

// flexInt accepts 3, "3" and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type wireFaculty struct {
	ID   int    `json:"id"`
	Name string `json:"fac_Name"`
}

func (w wireFaculty) model() model.Faculty { return model.Faculty{ID: w.ID, Name: w.Name} }

type wireFacultyYear struct {
	ID        int    `json:"id"`
	FacultyID int    `json:"facultyId"`
	Year      string `json:"year"`
}

func (w wireFacultyYear) model() model.FacultyYear {
	return model.FacultyYear{ID: w.ID, FacultyID: w.FacultyID, Year: w.Year}
}

type wireSemester struct {
	ID            int    `json:"id"`
	FacultyYearID int    `json:"facultyYearId"`
	Name          string `json:"sem_Name"`
}

func (w wireSemester) model() model.Semester {
	return model.Semester{ID: w.ID, FacultyYearID: w.FacultyYearID, Name: w.Name}
}

type wireRoom struct {
	ID     int    `json:"id"`
	Number string `json:"room_Num"`
}

func (w wireRoom) model() model.Room { return model.Room{ID: w.ID, Number: w.Number} }

type wireDoctor struct {
	ID        int    `json:"id"`
	Code      string `json:"dr_Code"`
	NameAr    string `json:"dr_NameAr"`
	NameEn    string `json:"dr_NameEn"`
	Email     string `json:"dr_Email"`
	Phone     string `json:"phone"`
	Image     string `json:"dr_Image"`
	FacultyID int    `json:"fac_ID"`
	Faculty   string `json:"faculty"`
}

func (w wireDoctor) model() model.Doctor {
	return model.Doctor{
		ID:          w.ID,
		Code:        w.Code,
		NameAr:      w.NameAr,
		NameEn:      w.NameEn,
		Email:       w.Email,
		Phone:       w.Phone,
		Image:       w.Image,
		FacultyID:   w.FacultyID,
		FacultyName: w.Faculty,
	}
}

type wireSubject struct {
	ID         int    `json:"id"`
	SubCode    string `json:"sub_Code"`
	SubCodeAlt string `json:"subCode"`
	SubName    string `json:"sub_Name"`
	SubNameAlt string `json:"subName"`
	DoctorID   int    `json:"dr_ID"`
	SemesterID int    `json:"facYearSem_ID"`
	RoomID     int    `json:"room_ID"`
	RoomNum    string `json:"room_Num"`
	RoomNumAlt string `json:"roomNum"`
	Rooms      *struct {
		ID     int    `json:"id"`
		Number string `json:"room_Num"`
	} `json:"rooms"`
	Doctor   string `json:"doctor"`
	Faculty  string `json:"faculty"`
	Year     string `json:"year"`
	Semester string `json:"semister"`
}

func (w wireSubject) model() model.Subject {
	s := model.Subject{
		ID:           w.ID,
		Code:         pick(w.SubCode, w.SubCodeAlt),
		Name:         pick(w.SubName, w.SubNameAlt),
		DoctorID:     w.DoctorID,
		SemesterID:   w.SemesterID,
		RoomID:       w.RoomID,
		RoomNumber:   pick(w.RoomNum, w.RoomNumAlt),
		DoctorName:   strings.TrimSpace(w.Doctor),
		FacultyName:  strings.TrimSpace(w.Faculty),
		YearLabel:    strings.TrimSpace(w.Year),
		SemesterName: strings.TrimSpace(w.Semester),
	}
	if w.Rooms != nil {
		s.RoomNumber = pick(w.Rooms.Number, s.RoomNumber)
		if s.RoomID == 0 {
			s.RoomID = w.Rooms.ID
		}
	}
	return s
}

type wireLecture struct {
	ID          int     `json:"id"`
	Name        string  `json:"lecture_Name"`
	SubjectID   int     `json:"sub_ID"`
	Day         flexInt `json:"day"`
	From        clock   `json:"fromTime"`
	To          clock   `json:"toTime"`
	RoomID      int     `json:"room_ID"`
	RoomNum     string  `json:"room_Num"`
	Subjects    string  `json:"subjects"`
	SubName     string  `json:"sub_Name"`
	DoctorAr    string  `json:"dr_NameAr"`
	FacultyName string  `json:"fac_Name"`
}

func (w wireLecture) model() model.Lecture {
	return model.Lecture{
		ID:          w.ID,
		Name:        w.Name,
		SubjectID:   w.SubjectID,
		Day:         weekday.FromNumber(int(w.Day)),
		From:        string(w.From),
		To:          string(w.To),
		RoomID:      w.RoomID,
		SubjectName: pick(w.Subjects, w.SubName),
		RoomNumber:  strings.TrimSpace(w.RoomNum),
		DoctorName:  strings.TrimSpace(w.DoctorAr),
		FacultyName: strings.TrimSpace(w.FacultyName),
	}
}

type wireStudent struct {
	ID         int             `json:"id"`
	Code       string          `json:"st_Code"`
	NameAr     string          `json:"st_NameAr"`
	NameEn     string          `json:"st_NameEn"`
	Email      string          `json:"st_Email"`
	Image      string          `json:"st_Image"`
	Phone      string          `json:"phone"`
	FingerID   flexInt         `json:"fingerID"`
	SemesterID int             `json:"facYearSem_ID"`
	Semester   json.RawMessage `json:"facultyYearSemister"`
}

func (w wireStudent) model() model.Student {
	st := model.Student{
		ID:         w.ID,
		Code:       w.Code,
		NameAr:     w.NameAr,
		NameEn:     w.NameEn,
		Email:      w.Email,
		Image:      w.Image,
		Phone:      w.Phone,
		FingerID:   int(w.FingerID),
		SemesterID: w.SemesterID,
	}
	var label string
	if err := json.Unmarshal(w.Semester, &label); err == nil {
		st.SemesterLabel = label
	}
	return st
}

type wireLog struct {
	StudentCode string `json:"st_Code"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Result      string `json:"result"`
	CourseCode  string `json:"courseCode"`
	SubCode     string `json:"subCode"`
}

type wireAttendanceSubject struct {
	SubCode string `json:"subCode"`
}

type wireNotification struct {
	ID         int    `json:"id"`
	SemesterID int    `json:"facYearSem_ID"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Date       string `json:"date"`
	IsRead     bool   `json:"isRead"`
}

func (w wireNotification) model() model.Notification {
	return model.Notification{
		ID:         w.ID,
		SemesterID: w.SemesterID,
		Title:      w.Title,
		Message:    w.Message,
		Date:       w.Date,
		IsRead:     w.IsRead,
	}
}

// decodeOneOrMany accepts a single object or an array and returns the first
// element.
func decodeOneOrMany[T any](raw json.RawMessage) (T, bool, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return zero, false, nil
	}
	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return zero, false, err
		}
		if len(list) == 0 {
			return zero, false, nil
		}
		return list[0], true, nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return zero, false, err
	}
	return one, true, nil
}

func convert[W any, M any](in []W, fn func(W) M) []M {
	out := make([]M, 0, len(in))
	for _, w := range in {
		out = append(out, fn(w))
	}
	return out
}
