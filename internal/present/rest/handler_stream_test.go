package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/quarrydata/quarry"
)

// fakeSubscriber stands in for the redis-backed feed: it waits for the
// initial kinds filter, delivers its prepared events, then blocks until
// the request context is torn down.
type fakeSubscriber struct {
	events    []quarry.Event
	output    chan<- quarry.Event
	delivered chan struct{}
	done      chan struct{}
}

func newFakeSubscriber(events ...quarry.Event) *fakeSubscriber {
	return &fakeSubscriber{
		events:    events,
		delivered: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, input <-chan []string, output chan<- quarry.Event) {
	f.output = output
	defer close(f.done)

	select {
	case <-input:
	case <-ctx.Done():
		return
	}

	for _, event := range f.events {
		select {
		case output <- event:
		case <-ctx.Done():
			return
		}
	}
	close(f.delivered)
	<-ctx.Done()
}

// outputOpen reports whether the handler left the event channel open
// through teardown; a send on a closed channel panics.
func (f *fakeSubscriber) outputOpen() (open bool) {
	defer func() {
		if recover() != nil {
			open = false
		}
	}()
	select {
	case f.output <- quarry.Event{Kind: "pipeline"}:
	default:
	}
	return true
}

func newStreamServer(signal EventSubscriber) *echo.Echo {
	h := NewHandler(nil, nil, nil, nil, nil, nil, nil, nil, nil, signal)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func TestEventsStreamSurvivesDisconnect(t *testing.T) {
	fake := newFakeSubscriber(quarry.Event{Kind: "datasource", Action: "created", ID: "src-1"})
	e := newStreamServer(fake)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?kinds=datasource", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	served := make(chan struct{})
	go func() {
		e.ServeHTTP(rec, req)
		close(served)
	}()

	select {
	case <-fake.delivered:
	case <-time.After(time.Second):
		t.Fatalf("event was never delivered")
	}

	cancel()

	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatalf("handler did not return after disconnect")
	}
	select {
	case <-fake.done:
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not stop")
	}

	if !fake.outputOpen() {
		t.Fatalf("event channel was closed during teardown")
	}
	if !strings.Contains(rec.Body.String(), `"kind":"datasource"`) {
		t.Fatalf("expected event in stream, got %q", rec.Body.String())
	}
}

func TestRealtimeTeardownAfterClientClose(t *testing.T) {
	fake := newFakeSubscriber(quarry.Event{Kind: "pipeline", Action: "status", ID: "pipe-1"})
	e := newStreamServer(fake)

	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/realtime", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Request{Type: "listen", Kinds: []string{"pipeline"}}); err != nil {
		t.Fatalf("listen request failed: %v", err)
	}

	var event quarry.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if event.Kind != "pipeline" {
		t.Fatalf("unexpected event: %+v", event)
	}

	conn.Close()

	select {
	case <-fake.done:
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not stop after client close")
	}
	if !fake.outputOpen() {
		t.Fatalf("event channel was closed during teardown")
	}
}
