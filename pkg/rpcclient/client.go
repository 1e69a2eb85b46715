package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/fracnft/fracnft/pkg/neorpc"
	"go.uber.org/atomic"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

// ErrNotFound is returned for blocks, transactions and receipts the node
// answers null for.
var ErrNotFound = errors.New("not found")

// Client talks JSON-RPC over HTTP to a fracnft node. It's safe for
// concurrent use.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	ctx      context.Context
	opts     Options
	lastID   *atomic.Uint64
}

// Options are the client settings, zero timeouts mean 4 seconds.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// MaxConnsPerHost is zero for unlimited.
	MaxConnsPerHost int
}

// New creates a client for an http(s) endpoint. No connection is made,
// use Ping to check the node is there. ctx bounds all requests.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	opts.setDefaults()

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	return &Client{
		cli: &http.Client{
			Transport: &http.Transport{
				DialContext:     dialer.DialContext,
				MaxConnsPerHost: opts.MaxConnsPerHost,
			},
			Timeout: opts.RequestTimeout,
		},
		endpoint: u,
		ctx:      ctx,
		opts:     opts,
		lastID:   atomic.NewUint64(0),
	}, nil
}

func (o *Options) setDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
}

// Endpoint returns the node URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Context returns the context given to New.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Close drops idle connections, the client stays usable.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

// Ping checks that the node accepts TCP connections.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("tcp", c.endpoint.Host, c.opts.DialTimeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// performRequest calls method with p and decodes the result into v. RPC
// errors are returned as *neorpc.Error.
func (c *Client) performRequest(method string, p []any, v any) error {
	if p == nil {
		p = []any{}
	}
	resp, err := c.makeHTTPRequest(&neorpc.Request{
		JSONRPC: neorpc.JSONRPCVersion,
		Method:  method,
		Params:  p,
		ID:      c.lastID.Inc(),
	})
	switch {
	case resp != nil && resp.Error != nil:
		return resp.Error
	case err != nil:
		return err
	case resp == nil || resp.Result == nil:
		return errors.New("no result returned")
	}
	return json.Unmarshal(resp.Result, v)
}

func (c *Client) makeHTTPRequest(r *neorpc.Request) (*neorpc.Response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	httpResp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// Error replies come with non-200 codes, the JSON body is more
	// specific so it's tried first.
	resp := new(neorpc.Response)
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d/%s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
		}
		return nil, fmt.Errorf("JSON decoding: %w", err)
	}
	return resp, nil
}
