package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fingerattend/internal/backend"
	"fingerattend/internal/config"
	"fingerattend/internal/dashboard"
	"fingerattend/internal/linker"
	"fingerattend/internal/model"
	"fingerattend/internal/queue"
	"fingerattend/internal/sensor"
	"fingerattend/internal/store"
)

type stubBackend struct {
	mu      sync.Mutex
	saved   []backend.Entity
	deleted []int
}

func (b *stubBackend) Faculties(context.Context) ([]model.Faculty, error) {
	return []model.Faculty{{ID: 1, Name: "Engineering"}}, nil
}

func (b *stubBackend) FacultyYears(context.Context) ([]model.FacultyYear, error) { return nil, nil }

func (b *stubBackend) Semesters(context.Context) ([]model.Semester, error) { return nil, nil }

func (b *stubBackend) Rooms(context.Context) ([]model.Room, error) { return nil, nil }

func (b *stubBackend) Doctors(context.Context) ([]model.Doctor, error) {
	return []model.Doctor{{ID: 7, NameEn: "Dr. Ali", Email: "ali@uni.edu", FacultyID: 1}}, nil
}

func (b *stubBackend) DoctorByEmail(context.Context, string) (model.Doctor, error) {
	return model.Doctor{ID: 7, NameEn: "Dr. Ali", Email: "ali@uni.edu", FacultyID: 1}, nil
}

func (b *stubBackend) StudentByEmail(context.Context, string) (model.Student, error) {
	return model.Student{ID: 3, Code: "S-100", NameEn: "Omar", Email: "omar@uni.edu", SemesterID: 1}, nil
}

func (b *stubBackend) Subjects(context.Context) ([]model.Subject, error) { return nil, nil }

func (b *stubBackend) Lectures(context.Context) ([]model.Lecture, error) { return nil, nil }

func (b *stubBackend) Students(context.Context) ([]model.Student, error) { return nil, nil }

func (b *stubBackend) AttendanceLogs(context.Context) ([]model.AttendanceLog, error) {
	return nil, nil
}

func (b *stubBackend) Notifications(context.Context) ([]model.Notification, error) {
	return []model.Notification{
		{ID: 1, SemesterID: 1, Title: "Midterm"},
		{ID: 2, SemesterID: 2, Title: "Other semester"},
	}, nil
}

func (b *stubBackend) Save(_ context.Context, entity backend.Entity, _ any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, entity)
	return nil
}

func (b *stubBackend) Delete(_ context.Context, _ backend.Entity, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	return nil
}

type stubScanner struct{}

func (stubScanner) Lookup(context.Context, int) (*sensor.Reading, error) { return nil, nil }

func (stubScanner) Match(context.Context) (sensor.MatchResult, error) {
	return sensor.MatchResult{Success: true, Message: "matched"}, nil
}

func newTestServer(t *testing.T) (*gin.Engine, *stubBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &stubBackend{}
	cfg := config.App{
		JWTIssuer:           "fingerattend",
		JWTSigningKey:       "test-key",
		SessionTTL:          time.Hour,
		DefaultRoom:         "Main Campus",
		GoodStandingPercent: 75,
	}
	kv := store.NewMemory()
	srv := &server{
		cfg:      cfg,
		base:     context.Background(),
		kv:       kv,
		source:   b,
		writer:   b,
		scanner:  stubScanner{},
		linker:   linker.New(b, stubScanner{}, kv),
		queue:    queue.NewInMemory(8),
		doctors:  dashboard.NewRegistry[*dashboard.Doctor](),
		students: dashboard.NewRegistry[*dashboard.Student](),
	}
	t.Cleanup(srv.doctors.Close)
	t.Cleanup(srv.students.Close)
	r := gin.New()
	srv.routes(r)
	return r, b
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signIn(t *testing.T, r http.Handler, email, role string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/v1/session", "", map[string]string{"email": email, "role": role})
	if w.Code != http.StatusCreated {
		t.Fatalf("sign in: %d %s", w.Code, w.Body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	r, _ := newTestServer(t)
	cases := []map[string]string{
		{"email": "not-an-email", "role": "Doctor"},
		{"email": "ali@uni.edu", "role": "Admin"},
		{"email": "ali@uni.edu"},
	}
	for _, body := range cases {
		if w := do(t, r, http.MethodPost, "/v1/session", "", body); w.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d", body, w.Code)
		}
	}
}

func TestDoctorMountAndRoleGuard(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "ali@uni.edu", "doctor")

	w := do(t, r, http.MethodPost, "/v1/doctor/mount", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mount: %d %s", w.Code, w.Body)
	}
	var view struct {
		Mounted bool           `json:"mounted"`
		Profile map[string]any `json:"profile"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if !view.Mounted || view.Profile == nil {
		t.Errorf("view = %+v", view)
	}

	if w := do(t, r, http.MethodGet, "/v1/student/view", token, nil); w.Code != http.StatusForbidden {
		t.Errorf("student route with doctor token: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/v1/doctor/view", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", w.Code)
	}
}

func TestDoctorStateRejectsUnknownTab(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "ali@uni.edu", "Doctor")
	do(t, r, http.MethodPost, "/v1/doctor/mount", token, nil)

	if w := do(t, r, http.MethodPut, "/v1/doctor/state", token, map[string]string{"tab": "nowhere"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown tab: %d", w.Code)
	}
	w := do(t, r, http.MethodPut, "/v1/doctor/state", token, map[string]string{"tab": "manage-courses"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"breadcrumb":"Manage Courses"`) {
		t.Errorf("manage courses: %d %s", w.Code, w.Body)
	}
}

func TestDoctorMutations(t *testing.T) {
	r, b := newTestServer(t)
	token := signIn(t, r, "ali@uni.edu", "Doctor")
	do(t, r, http.MethodPost, "/v1/doctor/mount", token, nil)

	w := do(t, r, http.MethodPost, "/v1/doctor/subjects", token, map[string]any{"name": "Algorithms"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete subject: %d %s", w.Code, w.Body)
	}
	if len(b.saved) != 0 {
		t.Errorf("invalid form reached the backend")
	}

	w = do(t, r, http.MethodPost, "/v1/doctor/rooms", token, map[string]any{"number": "A-101"})
	if w.Code != http.StatusOK {
		t.Fatalf("save room: %d %s", w.Code, w.Body)
	}
	if len(b.saved) != 1 || b.saved[0] != backend.EntityRoom {
		t.Errorf("saved = %v", b.saved)
	}

	w = do(t, r, http.MethodDelete, "/v1/doctor/rooms/4", token, nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete: %d %s", w.Code, w.Body)
	}
	if len(b.deleted) != 0 {
		t.Errorf("unconfirmed delete reached the backend")
	}
	if w := do(t, r, http.MethodDelete, "/v1/doctor/rooms/4?confirm=true", token, nil); w.Code != http.StatusOK {
		t.Fatalf("confirmed delete: %d %s", w.Code, w.Body)
	}
	if len(b.deleted) != 1 || b.deleted[0] != 4 {
		t.Errorf("deleted = %v", b.deleted)
	}
	if w := do(t, r, http.MethodDelete, "/v1/doctor/rooms/abc?confirm=true", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d", w.Code)
	}
}

func TestStudentNotificationsPersistAcrossViews(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "omar@uni.edu", "Student")

	w := do(t, r, http.MethodPost, "/v1/student/mount", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mount: %d %s", w.Code, w.Body)
	}
	if w := do(t, r, http.MethodPost, "/v1/student/notifications/1/toggle", token, nil); w.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", w.Code, w.Body)
	}

	// A fresh dashboard restores the read marks from the session.
	if w := do(t, r, http.MethodDelete, "/v1/student/mount", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("unmount: %d", w.Code)
	}
	w = do(t, r, http.MethodPost, "/v1/student/mount", token, nil)
	var view struct {
		Notifications []model.Notification `json:"notifications"`
		Unread        int                  `json:"unread"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Notifications) != 1 || !view.Notifications[0].IsRead || view.Unread != 0 {
		t.Errorf("view = %+v", view)
	}

	if w := do(t, r, http.MethodPost, "/v1/student/notifications/0/toggle", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("zero id: %d", w.Code)
	}
}

func TestStudentScanAndReport(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "omar@uni.edu", "Student")
	do(t, r, http.MethodPost, "/v1/student/mount", token, nil)

	w := do(t, r, http.MethodPost, "/v1/student/scan", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("scan: %d %s", w.Code, w.Body)
	}
	w = do(t, r, http.MethodGet, "/v1/student/view", token, nil)
	if !strings.Contains(w.Body.String(), `"scannedToday":true`) {
		t.Errorf("scan flag not set: %s", w.Body)
	}

	w = do(t, r, http.MethodGet, "/v1/student/report", token, nil)
	var rep dashboard.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Name != "Omar" || rep.AttendanceRate != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestEndSessionInvalidatesDashboard(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "ali@uni.edu", "Doctor")
	do(t, r, http.MethodPost, "/v1/doctor/mount", token, nil)

	if w := do(t, r, http.MethodDelete, "/v1/session", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("end session: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/v1/doctor/view", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("view after sign out: %d", w.Code)
	}
}

func TestReadStateSurvivesSigningInAgain(t *testing.T) {
	r, _ := newTestServer(t)
	token := signIn(t, r, "omar@uni.edu", "Student")
	do(t, r, http.MethodPost, "/v1/student/mount", token, nil)
	if w := do(t, r, http.MethodPost, "/v1/student/notifications/1/toggle", token, nil); w.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", w.Code, w.Body)
	}
	if w := do(t, r, http.MethodPut, "/v1/student/state", token, map[string]string{"language": "arabic"}); w.Code != http.StatusOK {
		t.Fatalf("language: %d %s", w.Code, w.Body)
	}
	if w := do(t, r, http.MethodDelete, "/v1/session", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("sign out: %d", w.Code)
	}

	token = signIn(t, r, "Omar@uni.edu", "Student")
	w := do(t, r, http.MethodPost, "/v1/student/mount", token, nil)
	var view struct {
		Language      string               `json:"language"`
		Notifications []model.Notification `json:"notifications"`
		Unread        int                  `json:"unread"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Notifications) != 1 || !view.Notifications[0].IsRead || view.Unread != 0 {
		t.Errorf("read mark lost after signing in again: %+v", view)
	}
	if view.Language != "arabic" {
		t.Errorf("language = %q", view.Language)
	}
}

func TestStudentLinksOnlyOwnFingerprint(t *testing.T) {
	r, _ := newTestServer(t)
	student := signIn(t, r, "omar@uni.edu", "Student")
	doctor := signIn(t, r, "ali@uni.edu", "Doctor")

	w := do(t, r, http.MethodPost, "/v1/fingerprints/link", student, map[string]any{"email": "someone@uni.edu", "fingerprintId": 4})
	if w.Code != http.StatusAccepted {
		t.Fatalf("enqueue: %d %s", w.Code, w.Body)
	}
	var job linker.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.Email != "omar@uni.edu" {
		t.Errorf("student linked %q", job.Email)
	}

	w = do(t, r, http.MethodPost, "/v1/fingerprints/link", doctor, map[string]any{"email": "lina@uni.edu", "fingerprintId": 5})
	var other linker.Job
	if err := json.Unmarshal(w.Body.Bytes(), &other); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusAccepted || other.Email != "lina@uni.edu" {
		t.Fatalf("doctor enqueue: %d %+v", w.Code, other)
	}

	if w := do(t, r, http.MethodGet, "/v1/fingerprints/link/"+job.ID, student, nil); w.Code != http.StatusOK {
		t.Errorf("own job: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/v1/fingerprints/link/"+other.ID, student, nil); w.Code != http.StatusNotFound {
		t.Errorf("someone else's job: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/v1/fingerprints/link/"+job.ID, doctor, nil); w.Code != http.StatusOK {
		t.Errorf("doctor reading a job: %d", w.Code)
	}
}
