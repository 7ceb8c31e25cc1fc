package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/veesix-networks/osvolt/pkg/version"
)

const requestIDHeader = "X-Request-ID"

// Client talks to the osvoltd provisioning API.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

type Response struct {
	StatusCode int
	RequestID  string
	Body       []byte
}

// Message is the error text of a failed request, or the status line when
// the server sent no JSON error body.
func (r *Response) Message() string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(r.Body, &body) == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(r.StatusCode)
}

func NewClient(server, basePath string, timeout time.Duration) *Client {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	return &Client{
		baseURL:   strings.TrimSuffix(server, "/") + strings.TrimSuffix(basePath, "/"),
		http:      &http.Client{Timeout: timeout},
		userAgent: version.UserAgent("osvoltcli"),
	}
}

func (c *Client) ProvisionAttachment(ctx context.Context, device, port string) (*Response, error) {
	return c.do(ctx, http.MethodPost, device, port)
}

func (c *Client) RemoveAttachment(ctx context.Context, device, port string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, device, port)
}

// AddService provisions a service on a named port. tags is empty or holds
// the service and customer tags in that order.
func (c *Client) AddService(ctx context.Context, portName string, tags ...string) (*Response, error) {
	return c.do(ctx, http.MethodPost, append([]string{"services", portName}, tags...)...)
}

func (c *Client) RemoveService(ctx context.Context, portName string, tags ...string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, append([]string{"services", portName}, tags...)...)
}

func (c *Client) Status(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "status")
}

// WaitReady polls the status endpoint with exponential backoff until the
// daemon answers or maxWait elapses.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = maxWait

	return backoff.Retry(func() error {
		resp, err := c.do(ctx, http.MethodGet, "readyz")
		if err != nil {
			return err
		}
		switch resp.StatusCode {
		case http.StatusOK:
			return nil
		case http.StatusNotFound:
			// readyz is only mounted when the watchdog runs
			return c.checkStatus(ctx)
		default:
			return fmt.Errorf("readyz returned %d", resp.StatusCode)
		}
	}, backoff.WithContext(b, ctx))
}

func (c *Client) checkStatus(ctx context.Context) error {
	resp, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return backoff.Permanent(fmt.Errorf("status endpoint not found at %s, check -base-path", c.baseURL))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, segments ...string) (*Response, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		if s == "" {
			return nil, errors.New("empty path segment")
		}
		escaped[i] = url.PathEscape(s)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.Join(escaped, "/"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
		Body:       body,
	}, nil
}
