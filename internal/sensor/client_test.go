package sensor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sensordata/12":
			_, _ = io.WriteString(w, `{"template":"abc"}`)
		case "/api/sensordata/13":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, false)

	got, err := c.Lookup(context.Background(), 12)
	if err != nil || got == nil || string(got.Data) != `{"template":"abc"}` {
		t.Fatalf("Lookup(12) = %+v, %v", got, err)
	}
	got, err = c.Lookup(context.Background(), 13)
	if err != nil || got != nil {
		t.Errorf("unknown id = %+v, %v", got, err)
	}
	if _, err := c.Lookup(context.Background(), 14); err == nil {
		t.Errorf("5xx must be an error")
	}
	if _, err := c.Lookup(context.Background(), 0); err == nil {
		t.Errorf("zero id must be rejected")
	}
	if err := c.Health(context.Background()); err == nil {
		t.Errorf("probe answered 500, health must fail")
	}
}

func TestMatchStub(t *testing.T) {
	c := New("", true)
	c.rand = func() float64 { return 0.5 }
	if r, _ := c.Match(context.Background()); !r.Success {
		t.Errorf("0.5 must match")
	}
	c.rand = func() float64 { return 0.9 }
	if r, _ := c.Match(context.Background()); r.Success || r.Message == "" {
		t.Errorf("0.9 must not match: %+v", r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Match(ctx); err == nil {
		t.Errorf("cancelled scan must fail")
	}
}

func TestSkipMode(t *testing.T) {
	c := New("http://127.0.0.1:1", true)
	if r, err := c.Lookup(context.Background(), 5); err != nil || r == nil || r.ID != 5 {
		t.Errorf("skip lookup = %+v %v", r, err)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("skip health = %v", err)
	}
}
