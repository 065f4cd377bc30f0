// Package aggregator queries an external bridge+swap quote API. The agent
// only plans against quotes; it never executes them.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 12 * time.Second
	// DefaultMaxRetries caps retry attempts on transport and 5xx failures.
	DefaultMaxRetries = 2
	// DefaultRetryDelay is the initial backoff; it doubles per attempt.
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultMaxDelay caps the backoff growth.
	DefaultMaxDelay = 5 * time.Second
)

// Client is an HTTP quote client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient builds a quote client for one aggregator host.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("aggregator base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse aggregator url: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QuoteRequest asks for the best route between two chains.
type QuoteRequest struct {
	FromChain   uint64
	ToChain     uint64
	FromToken   string // token address on the source chain
	ToToken     string // token address on the destination chain
	FromAmount  string // base units, decimal string
	FromAddress string // sender address
}

// Cost is one fee or gas line item of a quote.
type Cost struct {
	Name      string `json:"name"`
	AmountUSD string `json:"amountUsd"`
}

// Estimate is the quoted outcome.
type Estimate struct {
	ToAmount          string `json:"toAmount"` // destination base units
	ExecutionDuration int64  `json:"executionDuration"`
	FeeCosts          []Cost `json:"feeCosts"`
	GasCosts          []Cost `json:"gasCosts"`
}

// TxRequest is the prepared transaction for the quote's first leg, when the
// aggregator provides one.
type TxRequest struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// Quote is the first (best) route the aggregator returns.
type Quote struct {
	Tool               string     `json:"tool"`
	Estimate           Estimate   `json:"estimate"`
	TransactionRequest *TxRequest `json:"transactionRequest"`
}

// Quote fetches the best route for the request, retrying transient failures
// with exponential backoff.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	q := url.Values{}
	q.Set("fromChain", fmt.Sprintf("%d", req.FromChain))
	q.Set("toChain", fmt.Sprintf("%d", req.ToChain))
	q.Set("fromToken", req.FromToken)
	q.Set("toToken", req.ToToken)
	q.Set("fromAmount", req.FromAmount)
	q.Set("fromAddress", req.FromAddress)

	endpoint := c.baseURL + "/v1/quote?" + q.Encode()

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		quote, retryable, err := c.fetch(ctx, endpoint)
		if err == nil {
			return quote, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("quote failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// fetch runs one request; retryable reports whether another attempt may help.
func (c *Client) fetch(ctx context.Context, endpoint string) (*Quote, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build quote request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyLimit(resp.Body, 8<<10)
		err := fmt.Errorf("quote status %d: %s", resp.StatusCode, body)
		return nil, resp.StatusCode >= 500, err
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, false, fmt.Errorf("decode quote: %w", err)
	}
	if quote.Estimate.ToAmount == "" {
		return nil, false, fmt.Errorf("quote missing destination amount")
	}
	return &quote, false, nil
}

// readBodyLimit reads at most limit bytes for error messages.
func readBodyLimit(r io.Reader, limit int64) string {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
