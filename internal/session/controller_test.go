package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

// gatedTransport holds every request until its page is released.
type gatedTransport struct {
	mu    sync.Mutex
	gates map[int]chan struct{}
	raws  map[int]newsapi.RawResponse
	err   error
}

func newGatedTransport() *gatedTransport {
	return &gatedTransport{
		gates: make(map[int]chan struct{}),
		raws:  make(map[int]newsapi.RawResponse),
	}
}

func (g *gatedTransport) gate(page int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[page]
	if !ok {
		ch = make(chan struct{})
		g.gates[page] = ch
	}
	return ch
}

func (g *gatedTransport) respond(page int, raw newsapi.RawResponse) {
	g.mu.Lock()
	g.raws[page] = raw
	g.mu.Unlock()
	close(g.gate(page))
}

func (g *gatedTransport) Do(ctx context.Context, req newsapi.Request) (newsapi.RawResponse, error) {
	select {
	case <-g.gate(req.Page()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.raws[req.Page()], nil
}

type instantTransport struct {
	raw newsapi.RawResponse
	err error
}

func (i instantTransport) Do(context.Context, newsapi.Request) (newsapi.RawResponse, error) {
	return i.raw, i.err
}

func TestControllerAppliesOnlyLatestResponse(t *testing.T) {
	s, r := newTestSession(t, &fakeCreds{key: "k"})
	transport := newGatedTransport()
	ctrl := NewController(s, transport, time.Second, nil)
	ctx := context.Background()

	if _, err := ctrl.StartQuery(ctx, domain.Headlines{}, 5); err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	transport.respond(1, successRaw(t, 100, "first"))
	ctrl.Wait()

	// page 2 stays in flight while prev supersedes it
	if !ctrl.NextPage(ctx) {
		t.Fatalf("NextPage should dispatch")
	}
	// page 1 is already released, so prev completes immediately
	if !ctrl.PrevPage(ctx) {
		t.Fatalf("PrevPage should dispatch")
	}
	transport.respond(2, successRaw(t, 100, "stale"))
	ctrl.Wait()

	for _, call := range r.calls {
		for _, a := range call.result.Articles {
			if a.DisplayTitle() == "stale" {
				t.Fatalf("stale page was rendered")
			}
		}
	}
	snap := s.Snapshot()
	if snap.State != domain.StateReady || snap.Page.CurrentPage != 1 {
		t.Fatalf("unexpected final snapshot %+v", snap)
	}
}

func TestControllerTransportFailureResolvesSession(t *testing.T) {
	s, r := newTestSession(t, &fakeCreds{})
	ctrl := NewController(s, instantTransport{err: errors.New("no such host")}, time.Second, nil)

	if _, err := ctrl.StartQuery(context.Background(), domain.Search{Query: "go"}, 5); err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	ctrl.Wait()

	if s.Snapshot().State != domain.StateErrored {
		t.Fatalf("expected errored after transport failure")
	}
	if r.count() != 1 {
		t.Fatalf("expected one render, got %d", r.count())
	}
}

func TestControllerTimeoutResolvesAsFailure(t *testing.T) {
	s, _ := newTestSession(t, &fakeCreds{})
	ctrl := NewController(s, newGatedTransport(), 20*time.Millisecond, nil)

	if _, err := ctrl.StartQuery(context.Background(), domain.Headlines{}, 5); err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	ctrl.Wait()

	snap := s.Snapshot()
	if snap.State != domain.StateErrored || snap.Result == nil {
		t.Fatalf("expected timeout failure, got %+v", snap)
	}
}

func TestControllerNoOpsDoNotDispatch(t *testing.T) {
	s, _ := newTestSession(t, &fakeCreds{})
	ctrl := NewController(s, instantTransport{}, time.Second, nil)
	if ctrl.NextPage(context.Background()) || ctrl.PrevPage(context.Background()) || ctrl.Retry(context.Background()) {
		t.Fatalf("idle controller must not dispatch")
	}
	if _, err := ctrl.StartQuery(context.Background(), domain.Search{}, 5); err == nil {
		t.Fatalf("expected validation error")
	}
	ctrl.Wait()
}
