package cloudinary

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSign(t *testing.T) {
	c := New("demo", "key", "secret", "")
	got := c.sign(map[string]string{"timestamp": "100", "folder": "profiles", "api_key": "key"})
	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=profiles&timestamp=100secret")))
	if got != want {
		t.Errorf("sign = %s, want %s", got, want)
	}
}

func TestUploadBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1_1/demo/image/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("folder") != "profiles" || r.FormValue("timestamp") != "1746435600" || r.FormValue("signature") == "" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file: %v", err)
			return
		}
		if b, _ := io.ReadAll(f); string(b) != "png-bytes" {
			t.Errorf("file = %q", b)
		}
		_, _ = io.WriteString(w, `{"public_id":"profiles/x","secure_url":"https://res.cloudinary.com/demo/x.png"}`)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "profiles")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1746435600, 0) }

	res, err := c.UploadBytes(context.Background(), []byte("png-bytes"), "me.png")
	if err != nil {
		t.Fatal(err)
	}
	if res.SecureURL != "https://res.cloudinary.com/demo/x.png" {
		t.Errorf("result = %+v", res)
	}
}

func TestUploadNeedsConfig(t *testing.T) {
	c := New("", "", "", "")
	if _, err := c.UploadDataURL(context.Background(), "data:image/png;base64,AAAA"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
}
