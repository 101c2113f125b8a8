package join

import (
	"testing"

	"fingerattend/internal/model"
	"fingerattend/internal/refdata"
	"fingerattend/internal/weekday"
)

func testSnapshot() *refdata.Snapshot {
	return refdata.New(
		[]model.Faculty{{ID: 1, Name: "Engineering"}, {ID: 2, Name: "Science"}},
		[]model.FacultyYear{{ID: 10, FacultyID: 1, Year: "2nd"}, {ID: 11, FacultyID: 2, Year: "1st"}},
		[]model.Semester{{ID: 100, FacultyYearID: 10, Name: "Fall"}, {ID: 101, FacultyYearID: 10, Name: "Spring"}, {ID: 110, FacultyYearID: 11}},
		[]model.Room{{ID: 5, Number: "Lab-3"}, {ID: 6, Number: "Hall 1"}},
		[]model.Doctor{{ID: 7, NameEn: "Ali Hassan", Email: "ali@uni.edu", FacultyID: 1}, {ID: 8, NameAr: "سارة", FacultyID: 2}},
	)
}

func TestSubjectResolvesFullChain(t *testing.T) {
	r := New(testSnapshot(), nil)
	got := r.Subject(model.Subject{ID: 1000, Name: "Algorithms", Code: "CS201", SemesterID: 100, RoomID: 5, DoctorID: 7})

	if got.FacultyName != "Engineering" || got.YearLabel != "2nd" || got.RoomName != "Lab-3" {
		t.Errorf("subject = %+v", got)
	}
	if got.SemesterName != "Fall" || got.DoctorName != "Ali Hassan" || got.DoctorEmail != "ali@uni.edu" {
		t.Errorf("subject = %+v", got)
	}
	if got.FacultyID != 1 || got.YearID != 10 {
		t.Errorf("ids = faculty %d year %d", got.FacultyID, got.YearID)
	}
}

func TestSubjectFallbacks(t *testing.T) {
	r := New(testSnapshot(), nil)
	got := r.Subject(model.Subject{ID: 1, SemesterID: 999, RoomID: 999, DoctorID: 999})

	if got.FacultyName != NotAvailable || got.YearLabel != NoValue || got.SemesterName != NoValue {
		t.Errorf("chain fallbacks = %+v", got)
	}
	if got.RoomName != DefaultRoom || got.DoctorName != ToBeDecided || got.Name != NoValue || got.Code != NoValue {
		t.Errorf("field fallbacks = %+v", got)
	}
}

func TestDirectFieldWins(t *testing.T) {
	r := New(testSnapshot(), nil)
	got := r.Subject(model.Subject{
		ID: 1, SemesterID: 100, RoomID: 5, DoctorID: 7,
		RoomNumber: "B-12", DoctorName: "Dr. Mona", FacultyName: "Medicine", YearLabel: "4th",
	})
	if got.RoomName != "B-12" || got.DoctorName != "Dr. Mona" || got.FacultyName != "Medicine" || got.YearLabel != "4th" {
		t.Errorf("inlined values must win: %+v", got)
	}
}

func TestDeletedRoomFallsBackToDefault(t *testing.T) {
	snap := refdata.New(nil, nil, nil, []model.Room{{ID: 6, Number: "Hall 1"}}, nil)
	r := New(snap, nil, WithDefaultRoom("Annex"))
	if got := r.RoomName(model.Subject{RoomID: 5}); got != "Annex" {
		t.Errorf("room = %q", got)
	}
	if got := New(snap, nil, WithDefaultRoom("  ")).DefaultRoom(); got != DefaultRoom {
		t.Errorf("blank default room must be ignored, got %q", got)
	}
}

func TestLectureRoomPrecedence(t *testing.T) {
	subjects := []model.Subject{
		{ID: 1000, Name: "Algorithms", Code: "CS201", SemesterID: 100, RoomID: 5, DoctorID: 7},
		{ID: 1001, Name: "Physics", SemesterID: 110},
	}
	r := New(testSnapshot(), subjects)

	cases := []struct {
		name string
		in   model.Lecture
		want string
	}{
		{"lecture room", model.Lecture{SubjectID: 1000, RoomID: 6}, "Hall 1"},
		{"lecture inline", model.Lecture{SubjectID: 1000, RoomID: 6, RoomNumber: "Roof"}, "Roof"},
		{"subject room", model.Lecture{SubjectID: 1000}, "Lab-3"},
		{"default", model.Lecture{SubjectID: 1001}, DefaultRoom},
		{"unknown subject", model.Lecture{SubjectID: 42}, DefaultRoom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Lecture(tc.in).Room; got != tc.want {
				t.Errorf("room = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLectureJoinsSubject(t *testing.T) {
	subjects := []model.Subject{{ID: 1000, Name: "Algorithms", Code: "CS201", SemesterID: 100, DoctorID: 7}}
	r := New(testSnapshot(), subjects)

	got := r.Lecture(model.Lecture{ID: 1, SubjectID: 1000, Day: weekday.Monday, From: "09:00", To: "10:00"})
	if got.SubjectName != "Algorithms" || got.SubjectCode != "CS201" || got.DoctorName != "Ali Hassan" {
		t.Errorf("lecture = %+v", got)
	}
	if got.FacultyName != "Engineering" || got.YearLabel != "2nd" || got.Day != weekday.Monday {
		t.Errorf("lecture = %+v", got)
	}

	orphan := r.Lecture(model.Lecture{ID: 2, SubjectID: 5})
	if orphan.FacultyName != NotAvailable || orphan.YearLabel != NoValue || orphan.SubjectName != NoValue {
		t.Errorf("orphan = %+v", orphan)
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	subjects := []model.Subject{{ID: 1, SemesterID: 100}}
	r := New(testSnapshot(), subjects)
	r.Subjects(subjects)
	r.Lectures([]model.Lecture{{SubjectID: 1}})
	if subjects[0].FacultyName != "" || subjects[0].RoomNumber != "" {
		t.Errorf("input mutated: %+v", subjects[0])
	}
}

func TestCascadingSelects(t *testing.T) {
	r := New(testSnapshot(), nil)

	if years := r.YearsOfFaculty(1); len(years) != 1 || years[0].ID != 10 {
		t.Errorf("years = %v", years)
	}
	if sems := r.SemestersOfYear(10); len(sems) != 2 {
		t.Errorf("semesters = %v", sems)
	}
	if docs := r.DoctorsOfFaculty(2); len(docs) != 1 || docs[0].ID != 8 {
		t.Errorf("doctors = %v", docs)
	}
	ids := r.SemestersOfFaculty(1)
	if !ids[100] || !ids[101] || ids[110] {
		t.Errorf("semester ids = %v", ids)
	}
	if f, ok := r.FacultyOfSemester(110); !ok || f.Name != "Science" {
		t.Errorf("faculty of semester = %v %v", f, ok)
	}
}

func TestDoctorAndStudent(t *testing.T) {
	r := New(testSnapshot(), nil)
	d := r.Doctor(model.Doctor{ID: 8, NameAr: "سارة", FacultyID: 2})
	if d.Faculty != "Science" || d.DisplayName != "سارة" {
		t.Errorf("doctor = %+v", d)
	}
	if d := r.Doctor(model.Doctor{FacultyID: 9}); d.Faculty != NotAvailable {
		t.Errorf("doctor faculty fallback = %q", d.Faculty)
	}

	s := r.Student(model.Student{ID: 1, NameEn: "Omar", SemesterID: 100})
	if s.FacultyName != "Engineering" || s.YearLabel != "2nd" || s.Semester != "Fall" {
		t.Errorf("student = %+v", s)
	}
}
