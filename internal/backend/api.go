package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fingerattend/internal/model"
)

// Entity names a backend resource that accepts writes.
type Entity string

const (
	EntitySubject Entity = "subject"
	EntityRoom    Entity = "room"
	EntityLecture Entity = "lecture"
	EntityDoctor  Entity = "doctor"
	EntityStudent Entity = "student"
)

var savePaths = map[Entity]string{
	EntitySubject: "/api/Subjects/Add_OR_UpdateSubject",
	EntityRoom:    "/api/Rooms/Add_OR_UpdateRoom",
	EntityLecture: "/api/Lecture/Add_OR_UpdateLecture",
	EntityDoctor:  "/api/Doctors/Add_OR_UpdateDoctor",
	EntityStudent: "/api/Studets/Add_OR_UpdateStudent",
}

var deletePaths = map[Entity]string{
	EntitySubject: "/api/Subjects/DeleteSubject",
	EntityRoom:    "/api/Rooms/DeleteRoom",
	EntityLecture: "/api/Lecture/DeleteLecture",
	EntityDoctor:  "/api/Doctors/DeleteDoctor",
}

// Faculties returns every faculty.
func (c *Client) Faculties(ctx context.Context) ([]model.Faculty, error) {
	var out []wireFaculty
	if err := c.getJSON(ctx, "/api/Faculty/GetAllFaculty", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireFaculty.model), nil
}

// FacultyYears returns every faculty year.
func (c *Client) FacultyYears(ctx context.Context) ([]model.FacultyYear, error) {
	var out []wireFacultyYear
	if err := c.getJSON(ctx, "/api/FacultyYear/GetAllFacultyYear", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireFacultyYear.model), nil
}

// Semesters returns every semester.
func (c *Client) Semesters(ctx context.Context) ([]model.Semester, error) {
	var out []wireSemester
	if err := c.getJSON(ctx, "/api/FacultyYearSemister/GetAllSemisters", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireSemester.model), nil
}

// Rooms returns every room.
func (c *Client) Rooms(ctx context.Context) ([]model.Room, error) {
	var out []wireRoom
	if err := c.getJSON(ctx, "/api/Rooms/GetAllRooms", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireRoom.model), nil
}

// Doctors returns every doctor.
func (c *Client) Doctors(ctx context.Context) ([]model.Doctor, error) {
	var out []wireDoctor
	if err := c.getJSON(ctx, "/api/Doctors/GetAllDoctors", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireDoctor.model), nil
}

// DoctorByEmail looks a doctor up by email; ErrNotFound when unknown.
func (c *Client) DoctorByEmail(ctx context.Context, email string) (model.Doctor, error) {
	if strings.TrimSpace(email) == "" {
		return model.Doctor{}, errors.New("email required")
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/Doctors/GetDoctorByEmail", url.Values{"Email": {email}}, &raw); err != nil {
		return model.Doctor{}, err
	}
	w, ok, err := decodeOneOrMany[wireDoctor](raw)
	if err != nil {
		return model.Doctor{}, fmt.Errorf("failed to decode doctor: %w", err)
	}
	if !ok {
		return model.Doctor{}, ErrNotFound
	}
	return w.model(), nil
}

// Subjects returns every subject.
func (c *Client) Subjects(ctx context.Context) ([]model.Subject, error) {
	var out []wireSubject
	if err := c.getJSON(ctx, "/api/Subjects/GetAllSubjects", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireSubject.model), nil
}

// Lectures returns every lecture.
func (c *Client) Lectures(ctx context.Context) ([]model.Lecture, error) {
	var out []wireLecture
	if err := c.getJSON(ctx, "/api/Lecture/GetAllLecture", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireLecture.model), nil
}

// Students returns every student.
func (c *Client) Students(ctx context.Context) ([]model.Student, error) {
	var out []wireStudent
	if err := c.getJSON(ctx, "/api/Studets/GetAllStudets", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireStudent.model), nil
}

// StudentByEmail looks a student up by email. The backend answers with an
// object or a one-element array; ErrNotFound when unknown.
func (c *Client) StudentByEmail(ctx context.Context, email string) (model.Student, error) {
	if strings.TrimSpace(email) == "" {
		return model.Student{}, errors.New("email required")
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/Studets/GetStudetByEmail", url.Values{"Email": {email}}, &raw); err != nil {
		return model.Student{}, err
	}
	w, ok, err := decodeOneOrMany[wireStudent](raw)
	if err != nil {
		return model.Student{}, fmt.Errorf("failed to decode student: %w", err)
	}
	if !ok {
		return model.Student{}, ErrNotFound
	}
	return w.model(), nil
}

// AttendanceLogs returns the fingerprint log. Logs that carry no course code
// take the code of the attendance subject at the same position, which is how
// the backend pairs the two lists. A missing result counts as Success.
func (c *Client) AttendanceLogs(ctx context.Context) ([]model.AttendanceLog, error) {
	var logs []wireLog
	if err := c.getJSON(ctx, "/api/FingerprintLogs/GetAllFingerprintLogs", nil, &logs); err != nil {
		return nil, err
	}
	var subjects []wireAttendanceSubject
	needPairing := false
	for _, l := range logs {
		if pick(l.CourseCode, l.SubCode) == "" {
			needPairing = true
			break
		}
	}
	if needPairing {
		if err := c.getJSON(ctx, "/api/Attendance/GetAllSubjects", nil, &subjects); err != nil {
			return nil, fmt.Errorf("attendance subjects: %w", err)
		}
	}

	out := make([]model.AttendanceLog, 0, len(logs))
	for i, l := range logs {
		code := pick(l.CourseCode, l.SubCode)
		if code == "" && i < len(subjects) {
			code = subjects[i].SubCode
		}
		result := model.ResultFailed
		if r := strings.TrimSpace(l.Result); r == "" || strings.EqualFold(r, string(model.ResultSuccess)) {
			result = model.ResultSuccess
		}
		out = append(out, model.AttendanceLog{
			StudentRef:  l.StudentCode,
			Date:        strings.TrimSpace(l.Date),
			Time:        strings.TrimSpace(l.Time),
			Location:    strings.TrimSpace(l.Location),
			SubjectCode: code,
			Result:      result,
		})
	}
	return out, nil
}

// Notifications returns every notification as the backend stores it.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var out []wireNotification
	if err := c.getJSON(ctx, "/api/Notification/GetAllNotifications", nil, &out); err != nil {
		return nil, err
	}
	return convert(out, wireNotification.model), nil
}

// Save posts a create (id 0) or update payload for entity.
func (c *Client) Save(ctx context.Context, entity Entity, payload any) error {
	path, ok := savePaths[entity]
	if !ok {
		return fmt.Errorf("entity %q does not accept writes", entity)
	}
	return c.do(ctx, http.MethodPost, path, nil, payload, nil)
}

// Delete removes entity id.
func (c *Client) Delete(ctx context.Context, entity Entity, id int) error {
	path, ok := deletePaths[entity]
	if !ok {
		return fmt.Errorf("entity %q cannot be deleted", entity)
	}
	return c.do(ctx, http.MethodDelete, path, url.Values{"id": {strconv.Itoa(id)}}, nil, nil)
}
