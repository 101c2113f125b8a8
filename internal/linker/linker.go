// Package linker attaches a sensor fingerprint id to a student record. Jobs
// are queued by the api, processed by the worker, and their status is kept in
// the key/value store so the api can report progress.
package linker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fingerattend/internal/backend"
	"fingerattend/internal/metrics"
	"fingerattend/internal/model"
	"fingerattend/internal/mutate"
	"fingerattend/internal/queue"
	"fingerattend/internal/sensor"
)

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrFingerprintUnknown = errors.New("fingerprint id not found on sensor")
	ErrJobNotFound        = errors.New("link job not found")
)

// jobNamespace holds job records in the key/value store.
const jobNamespace = "linkjobs"

// Request asks to link FingerprintID to the student with Email.
type Request struct {
	Email         string `json:"email"`
	FingerprintID int    `json:"fingerprintId"`
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email required")
	}
	if r.FingerprintID <= 0 {
		return errors.New("fingerprint id must be positive")
	}
	return nil
}

// Status of a link job.
type Status string

const (
	Queued  Status = "queued"
	Running Status = "running"
	Linked  Status = "linked"
	Failed  Status = "failed"
)

// Job is the persisted record of one link request.
type Job struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FingerprintID int       `json:"fingerprintId"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// KV persists job records.
type KV interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
}

// Students reads and writes student records.
type Students interface {
	StudentByEmail(ctx context.Context, email string) (model.Student, error)
	Save(ctx context.Context, entity backend.Entity, payload any) error
}

// Sensor looks up stored fingerprints.
type Sensor interface {
	Lookup(ctx context.Context, id int) (*sensor.Reading, error)
}

// Linker runs the linking flow.
type Linker struct {
	students Students
	sensor   Sensor
	jobs     KV
	now      func() time.Time
}

// New creates a linker.
func New(students Students, s Sensor, jobs KV) *Linker {
	return &Linker{students: students, sensor: s, jobs: jobs, now: time.Now}
}

// Link finds the student, confirms the sensor knows the fingerprint id and
// saves the student with it.
func (l *Linker) Link(ctx context.Context, req Request) (model.Student, error) {
	if err := req.validate(); err != nil {
		return model.Student{}, err
	}
	st, err := l.students.StudentByEmail(ctx, req.Email)
	if errors.Is(err, backend.ErrNotFound) {
		return model.Student{}, fmt.Errorf("%w: %s", ErrStudentNotFound, req.Email)
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("check student: %w", err)
	}

	reading, err := l.sensor.Lookup(ctx, req.FingerprintID)
	if err != nil {
		return model.Student{}, fmt.Errorf("contact fingerprint sensor: %w", err)
	}
	if reading == nil {
		return model.Student{}, fmt.Errorf("%w: %d", ErrFingerprintUnknown, req.FingerprintID)
	}

	st.FingerID = req.FingerprintID
	payload, err := mutate.Wire(mutate.StudentFormOf(st))
	if err != nil {
		return model.Student{}, err
	}
	err = l.students.Save(ctx, backend.EntityStudent, payload)
	metrics.Mutation(string(backend.EntityStudent), "link", err)
	if err != nil {
		return model.Student{}, &mutate.Error{Entity: backend.EntityStudent, Op: "link", Err: err}
	}
	return st, nil
}

// Enqueue records a queued job and publishes it.
func (l *Linker) Enqueue(ctx context.Context, q queue.Queue, req Request) (Job, error) {
	if err := req.validate(); err != nil {
		return Job{}, err
	}
	msg, err := queue.NewMessage(queue.TypeFingerprintLink, req)
	if err != nil {
		return Job{}, err
	}
	now := l.now().UTC()
	job := Job{ID: msg.ID, Email: req.Email, FingerprintID: req.FingerprintID, Status: Queued, CreatedAt: now, UpdatedAt: now}
	if err := l.put(ctx, job); err != nil {
		return Job{}, err
	}
	if err := q.Publish(ctx, msg); err != nil {
		return Job{}, fmt.Errorf("publish link job: %w", err)
	}
	metrics.LinkJob(string(Queued))
	return job, nil
}

// Handle processes one queued message.
func (l *Linker) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeFingerprintLink {
		return nil
	}
	var req Request
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		return fmt.Errorf("decode link job %s: %w", msg.ID, err)
	}

	job, err := l.Job(ctx, msg.ID)
	if errors.Is(err, ErrJobNotFound) {
		now := l.now().UTC()
		job = Job{ID: msg.ID, Email: req.Email, FingerprintID: req.FingerprintID, CreatedAt: now}
	} else if err != nil {
		return err
	}
	job.Status, job.Error = Running, ""
	if err := l.put(ctx, job); err != nil {
		return err
	}

	_, linkErr := l.Link(ctx, req)
	job.Status = Linked
	if linkErr != nil {
		job.Status, job.Error = Failed, linkErr.Error()
		var merr *mutate.Error
		if errors.As(linkErr, &merr) {
			job.Error = merr.Message()
		}
	}
	metrics.LinkJob(string(job.Status))
	if err := l.put(ctx, job); err != nil {
		return err
	}
	return linkErr
}

// Run consumes link jobs until ctx is done.
func (l *Linker) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}
	for msg := range messages {
		log.Printf("processing link job %s", msg.ID)
		if err := l.Handle(ctx, msg); err != nil {
			log.Printf("link job %s failed: %v", msg.ID, err)
			continue
		}
		log.Printf("link job %s done", msg.ID)
	}
	return nil
}

// Job returns the record of a job.
func (l *Linker) Job(ctx context.Context, id string) (Job, error) {
	raw, ok, err := l.jobs.Get(ctx, jobNamespace, id)
	if err != nil {
		return Job{}, fmt.Errorf("load job %s: %w", id, err)
	}
	if !ok {
		return Job{}, ErrJobNotFound
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

func (l *Linker) put(ctx context.Context, job Job) error {
	job.UpdatedAt = l.now().UTC()
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := l.jobs.Set(ctx, jobNamespace, job.ID, string(raw)); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}
