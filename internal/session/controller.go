package session

import (
	"context"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/logger"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

// Transport performs the HTTP call for a built request.
type Transport interface {
	Do(ctx context.Context, req newsapi.Request) (newsapi.RawResponse, error)
}

// Response is the completion event of a Pending request.
type Response struct {
	Seq uint64
	Raw newsapi.RawResponse
	Err error
}

// Execute runs p through transport, bounded by timeout when positive.
func Execute(ctx context.Context, transport Transport, timeout time.Duration, p Pending) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	raw, err := transport.Do(ctx, p.Request)
	return Response{Seq: p.Seq, Raw: raw, Err: err}
}

// Controller drives a Session asynchronously: every issued request runs on its
// own goroutine and its completion is delivered back to the session.
type Controller struct {
	session   *Session
	transport Transport
	timeout   time.Duration
	log       logger.Logger
	wg        sync.WaitGroup
}

// NewController wires a session to a transport.
func NewController(sess *Session, transport Transport, timeout time.Duration, log logger.Logger) *Controller {
	return &Controller{
		session:   sess,
		transport: transport,
		timeout:   timeout,
		log:       logger.Ensure(log),
	}
}

// Session exposes the driven session.
func (c *Controller) Session() *Session { return c.session }

// StartQuery starts a new query and dispatches page 1.
func (c *Controller) StartQuery(ctx context.Context, mode domain.FetchMode, pageSize int) (uint64, error) {
	p, err := c.session.StartQuery(mode, pageSize)
	if err != nil {
		return 0, err
	}
	c.dispatch(ctx, p)
	return p.Seq, nil
}

// NextPage dispatches the next page if there is one.
func (c *Controller) NextPage(ctx context.Context) bool {
	return c.dispatchIf(ctx, c.session.NextPage)
}

// PrevPage dispatches the previous page if there is one.
func (c *Controller) PrevPage(ctx context.Context) bool {
	return c.dispatchIf(ctx, c.session.PrevPage)
}

// Retry re-dispatches the current page.
func (c *Controller) Retry(ctx context.Context) bool {
	return c.dispatchIf(ctx, c.session.Retry)
}

// Wait blocks until every dispatched request has been delivered.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) dispatchIf(ctx context.Context, op func() (Pending, bool)) bool {
	p, ok := op()
	if !ok {
		return false
	}
	c.dispatch(ctx, p)
	return true
}

func (c *Controller) dispatch(ctx context.Context, p Pending) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		resp := Execute(ctx, c.transport, c.timeout, p)
		if resp.Err != nil {
			c.log.WarnObj("request transport failed", "transport_error", map[string]any{
				"seq":   p.Seq,
				"error": resp.Err.Error(),
			})
		}
		c.session.Deliver(resp)
	}()
}
