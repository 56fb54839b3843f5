package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()
	ch1 := b.Subscribe("p1")
	ch2 := b.Subscribe("p1")
	other := b.Subscribe("p2")

	b.Publish("p1", PlanEvent{Stage: "solving"})
	for _, ch := range []chan PlanEvent{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Stage != "solving" {
				t.Fatalf("stage = %q", evt.Stage)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	select {
	case evt := <-other:
		t.Fatalf("unrelated plan received %+v", evt)
	default:
	}

	b.Unsubscribe("p1", ch1)
	if _, ok := <-ch1; ok {
		t.Fatal("unsubscribed channel still open")
	}
	// Publishing after one unsubscribe must still reach the other.
	b.Publish("p1", PlanEvent{Stage: "done"})
	if evt := <-ch2; evt.Stage != "done" {
		t.Fatalf("stage = %q", evt.Stage)
	}
	b.Unsubscribe("p1", ch2)
	b.Unsubscribe("p2", other)
}

func TestBrokerDropsOnSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p1")
	// Fill the buffer past capacity; publish must never block.
	for i := 0; i < 64; i++ {
		b.Publish("p1", PlanEvent{Stage: "matrix"})
	}
	b.Unsubscribe("p1", ch)
}

func TestPlanStream(t *testing.T) {
	srv := newTestServer(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/plan/", srv.PlanStreamHandler)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/plan/p1/events/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The handler subscribes asynchronously; keep publishing until the
	// first event comes through.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				srv.Broker.Publish("p1", PlanEvent{Stage: "geocoding", Detail: "start"})
			}
		}
	}()

	var evt PlanEvent
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Stage != "geocoding" || evt.Detail != "start" {
		t.Fatalf("event = %+v", evt)
	}

	srv.Broker.Publish("p1", PlanEvent{Stage: "done", Detail: "p1"})
	for evt.Stage != "done" {
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("read done: %v", err)
		}
	}
	// The server closes the stream after a terminal stage.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("stream stayed open after done")
	}
}
