// Package mutate submits create, update and delete requests for the editable
// entities. Required fields are checked before any request is made; the
// backend stays the judge of uniqueness and business rules. A successful
// write triggers a full reload of the owning view.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"fingerattend/internal/backend"
	"fingerattend/internal/metrics"
	"fingerattend/internal/model"
)

var (
	// ErrBusy rejects a submit while another one is in flight.
	ErrBusy = errors.New("another submission is in progress")
	// ErrNotConfirmed rejects a delete the user has not confirmed.
	ErrNotConfirmed = errors.New("delete requires confirmation")
)

// FieldError is one failed pre-check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a submit; no request was made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Error is a write the backend rejected, tagged with entity and operation.
type Error struct {
	Entity backend.Entity
	Op     string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Message is the text shown to the user: the backend's message when it sent
// one, else a generic line.
func (e *Error) Message() string {
	fallback := fmt.Sprintf("Failed to %s %s", e.Op, e.Entity)
	var apiErr *backend.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}

// State is the mutation state machine.
type State string

const (
	Idle       State = "idle"
	Submitting State = "submitting"
	Failed     State = "failed"
)

// Writer issues backend writes.
type Writer interface {
	Save(ctx context.Context, entity backend.Entity, payload any) error
	Delete(ctx context.Context, entity backend.Entity, id int) error
}

// Check is an extra pre-check run after the required-field validation.
type Check func(Form) []FieldError

// UniqueSubjectName rejects a subject whose name, ignoring case, is already
// used by another loaded subject.
func UniqueSubjectName(existing []model.Subject) Check {
	return func(f Form) []FieldError {
		sf, ok := f.(SubjectForm)
		if !ok {
			return nil
		}
		name := strings.TrimSpace(sf.Name)
		for _, s := range existing {
			if s.ID != sf.ID && strings.EqualFold(strings.TrimSpace(s.Name), name) {
				return []FieldError{{Field: "name", Message: "a course with the same name already exists"}}
			}
		}
		return nil
	}
}

// DeleteRequest names the record to remove. Confirmed must be set by an
// explicit user confirmation.
type DeleteRequest struct {
	Entity    backend.Entity
	ID        int
	Confirmed bool
}

// Mutator runs one mutation at a time for a view.
type Mutator struct {
	w        Writer
	reload   func(context.Context)
	validate *validator.Validate

	busy atomic.Bool

	mu      sync.Mutex
	state   State
	lastErr error
}

// New creates a mutator. reload runs after every successful write.
func New(w Writer, reload func(context.Context)) *Mutator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if reload == nil {
		reload = func(context.Context) {}
	}
	return &Mutator{w: w, reload: reload, validate: v, state: Idle}
}

// State returns the current state and the retained error, if any.
func (m *Mutator) State() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.lastErr
}

// Dismiss clears a retained error.
func (m *Mutator) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Failed {
		m.state = Idle
	}
	m.lastErr = nil
}

// Validate runs the required-field rules and checks against f.
func (m *Mutator) Validate(f Form, checks ...Check) error {
	var fields []FieldError
	if err := m.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
		}
	}
	for _, c := range checks {
		fields = append(fields, c(f)...)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	}
	return "failed " + fe.Tag()
}

// Save validates f and posts it as a create (id 0) or update.
func (m *Mutator) Save(ctx context.Context, f Form, checks ...Check) error {
	if !m.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.busy.Store(false)

	if err := m.Validate(f, checks...); err != nil {
		m.finish(err)
		return err
	}
	payload, err := Wire(f)
	if err != nil {
		m.finish(err)
		return err
	}
	return m.submit(ctx, f.Entity(), "save", func(ctx context.Context) error {
		return m.w.Save(ctx, f.Entity(), payload)
	})
}

// Delete removes a record once the request is confirmed. An unconfirmed
// request makes no backend call.
func (m *Mutator) Delete(ctx context.Context, req DeleteRequest) error {
	if !req.Confirmed {
		return ErrNotConfirmed
	}
	if !m.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.busy.Store(false)

	if req.ID <= 0 {
		err := &ValidationError{Fields: []FieldError{{Field: "id", Message: "is required"}}}
		m.finish(err)
		return err
	}
	return m.submit(ctx, req.Entity, "delete", func(ctx context.Context) error {
		return m.w.Delete(ctx, req.Entity, req.ID)
	})
}

func (m *Mutator) submit(ctx context.Context, entity backend.Entity, op string, call func(context.Context) error) error {
	m.mu.Lock()
	m.state, m.lastErr = Submitting, nil
	m.mu.Unlock()

	err := call(ctx)
	metrics.Mutation(string(entity), op, err)
	if err != nil {
		merr := &Error{Entity: entity, Op: op, Err: err}
		log.Printf("%s %s failed: %v", op, entity, err)
		m.finish(merr)
		return merr
	}
	m.finish(nil)
	m.reload(ctx)
	return nil
}

func (m *Mutator) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state, m.lastErr = Failed, err
		return
	}
	m.state, m.lastErr = Idle, nil
}
