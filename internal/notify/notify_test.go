package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/username-escrow/backend/internal/events"
	"go.uber.org/zap"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, events.Event) error {
	return errors.New("broker down")
}

func TestBridge_ForwardContinuesPastFailingSink(t *testing.T) {
	rec := &events.Recorder{}
	b := NewBridge(zap.NewNop(),
		Sink{Name: "broken", Publisher: failingPublisher{}},
		Sink{Name: "recorder", Publisher: rec},
	)

	ev := events.Event{Type: events.EventPaymentClaimed, Payload: map[string]any{"payment_id": 1}}
	if err := b.Forward(context.Background(), ev); err == nil {
		t.Fatal("expected joined error from failing sink")
	}
	if got := len(rec.OfType(events.EventPaymentClaimed)); got != 1 {
		t.Fatalf("recorder got %d events, want 1", got)
	}
}

func TestWebhookClient(t *testing.T) {
	var got webhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second, zap.NewNop())
	ev := events.Event{Type: events.EventUserRegistered, Payload: map[string]any{"username": "alice"}}
	if err := c.Publish(context.Background(), events.ChannelLedger, ev); err != nil {
		t.Fatal(err)
	}
	if got.Channel != events.ChannelLedger || got.Event.Type != events.EventUserRegistered {
		t.Fatalf("webhook received %+v", got)
	}
	if got.Event.Payload["username"] != "alice" {
		t.Errorf("payload = %v", got.Event.Payload)
	}
}

func TestWebhookClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, time.Second, zap.NewNop())
	if err := c.Publish(context.Background(), events.ChannelLedger, events.Event{Type: "x"}); err == nil {
		t.Fatal("expected error on 502")
	}
}
