package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := NewInMemory(4)
	msg, err := NewMessage(TypeFingerprintLink, map[string]any{"email": "a@uni.edu", "fingerprintId": 12})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == "" {
		t.Fatalf("message id not set")
	}
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatal(err)
	}

	ch, _ := q.Consume(ctx)
	select {
	case got := <-ch:
		if got.ID != msg.ID || got.Type != TypeFingerprintLink {
			t.Errorf("got %+v", got)
		}
		var body struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(got.Body, &body); err != nil || body.Email != "a@uni.edu" {
			t.Errorf("body = %s", got.Body)
		}
	case <-ctx.Done():
		t.Fatal("timed out")
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := NewInMemory(1).Consume(ctx)
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Errorf("unexpected message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
