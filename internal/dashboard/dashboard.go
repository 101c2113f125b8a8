// Package dashboard holds the per-session view controllers behind the doctor
// and student dashboards.
//
// A controller owns its active tab, search query, category filters, sidebar
// state and the loading flag and error of every data domain. Mount loads all
// domains at once; each domain settles on its own, so a slow or failing fetch
// never holds the others back. View models are derived on every read from
// whatever has arrived so far.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fingerattend/internal/attendance"
	"fingerattend/internal/backend"
	"fingerattend/internal/filter"
	"fingerattend/internal/join"
	"fingerattend/internal/metrics"
	"fingerattend/internal/model"
	"fingerattend/internal/refdata"
)

// Domain tags one independently loaded data set.
type Domain string

const (
	Profile       Domain = "Profile"
	Courses       Domain = "Courses"
	Schedule      Domain = "Schedule"
	Attendance    Domain = "Attendance"
	Students      Domain = "Students"
	Doctors       Domain = "Doctors"
	Reference     Domain = "Reference"
	Notifications Domain = "Notifications"
)

// Tab is a dashboard section.
type Tab string

type tabInfo struct {
	Tab   Tab
	Title string
}

// ErrUnknownTab rejects a tab the dashboard does not have.
var ErrUnknownTab = errors.New("unknown tab")

// Source reads every collection the dashboards show.
type Source interface {
	refdata.Source
	DoctorByEmail(ctx context.Context, email string) (model.Doctor, error)
	StudentByEmail(ctx context.Context, email string) (model.Student, error)
	Subjects(ctx context.Context) ([]model.Subject, error)
	Lectures(ctx context.Context) ([]model.Lecture, error)
	Students(ctx context.Context) ([]model.Student, error)
	AttendanceLogs(ctx context.Context) ([]model.AttendanceLog, error)
	Notifications(ctx context.Context) ([]model.Notification, error)
}

// Config carries the settings shared by both dashboards.
type Config struct {
	DefaultRoom string
	GoodPercent int
	Now         func() time.Time
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) resolver(snap *refdata.Snapshot, subjects []model.Subject) *join.Resolver {
	return join.New(snap, subjects, join.WithDefaultRoom(c.DefaultRoom))
}

func (c Config) calculator() *attendance.Calculator {
	return attendance.NewCalculator(c.GoodPercent)
}

// Change is a partial update of the UI state. Nil fields are left alone. A
// filter set to "" or "all" is cleared.
type Change struct {
	Tab       *Tab              `json:"tab,omitempty"`
	Query     *string           `json:"query,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	Collapsed *bool             `json:"collapsed,omitempty"`
	Language  *string           `json:"language,omitempty"`
}

// Status is the UI and loading state common to both dashboards.
type Status struct {
	Tab        Tab               `json:"tab"`
	Breadcrumb string            `json:"breadcrumb"`
	Tabs       []Tab             `json:"tabs"`
	Query      string            `json:"query"`
	Filters    map[string]string `json:"filters"`
	Collapsed  bool              `json:"collapsed"`
	Mounted    bool              `json:"mounted"`
	Loading    bool              `json:"loading"`
	Pending    []Domain          `json:"pending,omitempty"`
	Errors     map[Domain]string `json:"errors,omitempty"`
}

// controller is the state machine shared by the dashboards.
type controller struct {
	name string
	tabs []tabInfo

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	cancelLoad context.CancelFunc
	gen        uint64
	closed     bool
	mounted    bool
	loading    map[Domain]bool
	errs       map[Domain]error

	tab       Tab
	query     string
	filters   map[string]string
	collapsed bool
}

func (c *controller) init(parent context.Context, name string, tabs []tabInfo) {
	c.ctx, c.cancel = context.WithCancel(parent)
	c.name = name
	c.tabs = tabs
	c.loading = map[Domain]bool{}
	c.errs = map[Domain]error{}
	c.tab = tabs[0].Tab
	c.filters = map[string]string{}
}

// begin starts a load generation. The returned context ends when ctx, the
// controller or a newer generation ends. ok is false once closed.
func (c *controller) begin(ctx context.Context, domains []Domain) (lctx context.Context, done func(), gen uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, 0, false
	}
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	c.gen++
	c.mounted = true
	for _, d := range domains {
		c.loading[d] = true
		delete(c.errs, d)
	}
	lctx, cancel := context.WithCancel(c.ctx)
	stop := context.AfterFunc(ctx, cancel)
	c.cancelLoad = cancel
	return lctx, func() { stop(); cancel() }, c.gen, true
}

// settle records the outcome of one domain. Results of a stale generation
// or a closed controller are dropped.
func (c *controller) settle(gen uint64, d Domain, err error, apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.loading[d] = false
	if err != nil {
		c.errs[d] = err
		metrics.DomainFailed(c.name, string(d))
	} else {
		delete(c.errs, d)
	}
	if apply != nil {
		apply()
	}
}

// Close cancels in-flight loads; later completions are ignored.
func (c *controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

func (c *controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *controller) title(t Tab) (string, bool) {
	for _, ti := range c.tabs {
		if ti.Tab == t {
			return ti.Title, true
		}
	}
	return "", false
}

// apply changes the UI state; caller holds mu. Switching tabs does not
// refetch anything.
func (c *controller) apply(ch Change) error {
	if ch.Tab != nil {
		if _, ok := c.title(*ch.Tab); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTab, *ch.Tab)
		}
		c.tab = *ch.Tab
	}
	if ch.Query != nil {
		c.query = strings.TrimSpace(*ch.Query)
	}
	for k, v := range ch.Filters {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, filter.All) {
			delete(c.filters, k)
			continue
		}
		c.filters[k] = v
	}
	if ch.Collapsed != nil {
		c.collapsed = *ch.Collapsed
	}
	return nil
}

func (c *controller) filterValue(key string) string {
	if v, ok := c.filters[key]; ok {
		return v
	}
	return filter.All
}

// status snapshots the UI state; caller holds mu.
func (c *controller) status() Status {
	st := Status{
		Tab:       c.tab,
		Query:     c.query,
		Filters:   make(map[string]string, len(c.filters)),
		Collapsed: c.collapsed,
		Mounted:   c.mounted,
	}
	st.Breadcrumb, _ = c.title(c.tab)
	for _, ti := range c.tabs {
		st.Tabs = append(st.Tabs, ti.Tab)
	}
	for k, v := range c.filters {
		st.Filters[k] = v
	}
	for d, busy := range c.loading {
		if busy {
			st.Pending = append(st.Pending, d)
		}
	}
	sort.Slice(st.Pending, func(i, j int) bool { return st.Pending[i] < st.Pending[j] })
	st.Loading = len(st.Pending) > 0
	if len(c.errs) > 0 {
		st.Errors = make(map[Domain]string, len(c.errs))
		for d, err := range c.errs {
			st.Errors[d] = errorMessage(d, err)
		}
	}
	return st
}

// errorMessage is the line shown for a failed domain.
func errorMessage(d Domain, err error) string {
	fallback := fmt.Sprintf("Failed to load %s", strings.ToLower(string(d)))
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}

// referenceErr folds the lookup failures other than doctors into one error.
func referenceErr(snap *refdata.Snapshot) error {
	var errs []error
	for _, d := range []refdata.Domain{refdata.Faculties, refdata.FacultyYears, refdata.Semesters, refdata.Rooms} {
		if err := snap.Err(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetchList runs one list fetch tagged with d. The list is empty on error.
func fetchList[T any](ctx context.Context, d Domain, fn func(context.Context) ([]T, error)) ([]T, error) {
	res := refdata.Fetch(ctx, refdata.Domain(d), fn)
	return res.Items, res.Err
}
