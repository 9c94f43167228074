// Package remote talks to the hosted database/auth service through its
// PostgREST interface: stored procedure calls and filtered table reads.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds each remote call made with the default HTTP client.
const DefaultTimeout = 10 * time.Second

var placeholders = []string{"your-project-ref", "your-anon-key", "placeholder"}

// IsConfigured reports whether url and key look like real credentials rather
// than empty or template values.
func IsConfigured(baseURL, apiKey string) bool {
	if baseURL == "" || apiKey == "" {
		return false
	}
	for _, p := range placeholders {
		if strings.Contains(baseURL, p) || strings.Contains(apiKey, p) {
			return false
		}
	}
	return true
}

type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if !IsConfigured(cfg.URL, cfg.APIKey) {
		return nil, errors.New("remote service url and api key are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// RPC invokes a stored procedure. A non-2xx answer is returned as *Error.
func (c *Client) RPC(ctx context.Context, fn string, params any) ([]byte, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", fn, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Query is a PostgREST read: column selection with embedded resources,
// equality filters, ordering and limits.
type Query struct {
	client *Client
	table  string
	params url.Values
	orders []string
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) Execute(ctx context.Context) ([]byte, error) {
	params := q.params
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}

	reqURL := q.client.baseURL + "/rest/v1/" + q.table
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	return q.client.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseError(resp.StatusCode, body)
	}

	return body, nil
}
