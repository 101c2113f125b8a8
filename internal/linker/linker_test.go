package linker

import (
	"context"
	"errors"
	"testing"

	"fingerattend/internal/backend"
	"fingerattend/internal/model"
	"fingerattend/internal/queue"
	"fingerattend/internal/sensor"
	"fingerattend/internal/store"
)

type fakeStudents struct {
	student model.Student
	missing bool
	saveErr error
	saved   map[string]any
}

func (f *fakeStudents) StudentByEmail(_ context.Context, email string) (model.Student, error) {
	if f.missing {
		return model.Student{}, backend.ErrNotFound
	}
	return f.student, nil
}

func (f *fakeStudents) Save(_ context.Context, _ backend.Entity, payload any) error {
	f.saved = payload.(map[string]any)
	return f.saveErr
}

type fakeSensor struct{ known map[int]bool }

func (f fakeSensor) Lookup(_ context.Context, id int) (*sensor.Reading, error) {
	if !f.known[id] {
		return nil, nil
	}
	return &sensor.Reading{ID: id}, nil
}

func TestLink(t *testing.T) {
	students := &fakeStudents{student: model.Student{ID: 3, Email: "a@uni.edu", SemesterID: 100}}
	l := New(students, fakeSensor{known: map[int]bool{12: true}}, store.NewMemory())

	st, err := l.Link(context.Background(), Request{Email: "a@uni.edu", FingerprintID: 12})
	if err != nil {
		t.Fatal(err)
	}
	if !st.FingerprintRegistered() || students.saved["FingerID"] != 12 || students.saved["ID"] != 3 {
		t.Errorf("saved %v", students.saved)
	}
}

func TestLinkFailures(t *testing.T) {
	ctx := context.Background()
	sens := fakeSensor{known: map[int]bool{12: true}}

	l := New(&fakeStudents{missing: true}, sens, store.NewMemory())
	if _, err := l.Link(ctx, Request{Email: "x@uni.edu", FingerprintID: 12}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("missing student = %v", err)
	}

	students := &fakeStudents{student: model.Student{ID: 3}}
	l = New(students, sens, store.NewMemory())
	if _, err := l.Link(ctx, Request{Email: "a@uni.edu", FingerprintID: 99}); !errors.Is(err, ErrFingerprintUnknown) {
		t.Errorf("unknown fingerprint = %v", err)
	}
	if students.saved != nil {
		t.Errorf("student saved despite unknown fingerprint")
	}
	if _, err := l.Link(ctx, Request{FingerprintID: 12}); err == nil {
		t.Errorf("blank email accepted")
	}
}

func TestEnqueueAndHandle(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	q := queue.NewInMemory(1)
	students := &fakeStudents{student: model.Student{ID: 3, Email: "a@uni.edu"}, saveErr: &backend.APIError{Status: 400, Message: "Finger already used"}}
	l := New(students, fakeSensor{known: map[int]bool{12: true}}, kv)

	job, err := l.Enqueue(ctx, q, Request{Email: "a@uni.edu", FingerprintID: 12})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := l.Job(ctx, job.ID); got.Status != Queued {
		t.Errorf("status = %s", got.Status)
	}

	ch, _ := q.Consume(ctx)
	msg := <-ch
	if err := l.Handle(ctx, msg); err == nil {
		t.Fatalf("save failure must be reported")
	}
	got, _ := l.Job(ctx, job.ID)
	if got.Status != Failed || got.Error != "Finger already used" {
		t.Errorf("job = %+v", got)
	}

	students.saveErr = nil
	if err := l.Handle(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if got, _ := l.Job(ctx, job.ID); got.Status != Linked || got.Error != "" {
		t.Errorf("job = %+v", got)
	}

	if _, err := l.Job(ctx, "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("missing job = %v", err)
	}
}
