// Package upstream performs outbound calls to the hosted identity and data
// services over fiber's fasthttp client.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrDeadlineExceeded is returned when the caller's context has no time left.
var ErrDeadlineExceeded = errors.New("upstream: deadline exceeded before request")

// Request describes a single POST to an upstream service.
type Request struct {
	URL         string
	ContentType string
	Headers     map[string]string
	Body        any
}

// Response carries the raw upstream reply.
type Response struct {
	Status int
	Body   []byte
}

// Client issues JSON POST requests with a bounded timeout.
type Client struct {
	timeout time.Duration
}

// NewClient builds a client. A zero timeout relies on the context deadline alone.
func NewClient(timeout time.Duration) *Client {
	return &Client{timeout: timeout}
}

// Post encodes req.Body as JSON and sends it. Non-2xx statuses are returned
// as a Response, not an error; callers decode service-specific error bodies.
func (c *Client) Post(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout, err := c.effectiveTimeout(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = fiber.MIMEApplicationJSON
	}

	agent := fiber.Post(req.URL)
	agent.ContentType(contentType)
	for k, v := range req.Headers {
		agent.Set(k, v)
	}
	agent.Body(payload)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("post %s: %w", req.URL, errors.Join(errs...))
	}
	return &Response{Status: status, Body: body}, nil
}

func (c *Client) effectiveTimeout(ctx context.Context) (time.Duration, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, ErrDeadlineExceeded
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
