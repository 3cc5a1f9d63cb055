package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
	"github.com/riskibarqy/user-profile-svc/internal/platform/resilience"
)

func testEvent() profile.ChangeEvent {
	return profile.ChangeEvent{
		ProfileID:  "p-1",
		Kind:       profile.ChangeUpdated,
		Version:    2,
		OccurredAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewWebhookPublisher(t *testing.T) {
	t.Run("requires an endpoint", func(t *testing.T) {
		if _, err := NewWebhookPublisher(WebhookPublisherConfig{}, logging.NewNop()); err == nil {
			t.Fatal("expected an error for a missing endpoint")
		}
	})

	t.Run("rejects non http schemes", func(t *testing.T) {
		cfg := WebhookPublisherConfig{Endpoint: "ftp://hooks.example.com"}
		if _, err := NewWebhookPublisher(cfg, logging.NewNop()); err == nil {
			t.Fatal("expected an error for a non http endpoint")
		}
	})
}

func TestWebhookPublisher_Publish(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	received := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		received <- struct{}{}
	}))
	defer server.Close()

	pub, err := NewWebhookPublisher(WebhookPublisherConfig{
		Endpoint: server.URL,
		Token:    "hook-secret",
		Timeout:  2 * time.Second,
		Workers:  2,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook endpoint was never called")
	}
	pub.Close()

	if gotAuth != "Bearer hook-secret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}

	var payload profile.ChangeEvent
	if err := sonic.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("decode payload %q: %v", gotBody, err)
	}
	if payload.ProfileID != "p-1" || payload.Kind != profile.ChangeUpdated || payload.Version != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWebhookPublisher_DroppedEventCountsAsFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()

	pub, err := NewWebhookPublisher(WebhookPublisherConfig{
		Endpoint:         server.URL,
		Timeout:          5 * time.Second,
		Workers:          1,
		FailureThreshold: 1,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer pub.Close()
	// Unblock the in-flight delivery before Close waits on it.
	defer close(release)

	// The single worker blocks on the first delivery.
	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	// The pool is saturated, so this event is dropped. The drop must count
	// against the breaker; otherwise its slot stays unaccounted for.
	err = pub.Publish(context.Background(), testEvent())
	if err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected an enqueue error, got %v", err)
	}

	if state := pub.breaker.State(); state != resilience.CircuitStateOpen {
		t.Fatalf("expected the breaker open after the drop, got %s", state)
	}
	if err := pub.Publish(context.Background(), testEvent()); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}
