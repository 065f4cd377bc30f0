package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fromChain"); got != "8453" {
			t.Errorf("fromChain: got %q, want 8453", got)
		}
		if got := r.URL.Query().Get("fromAmount"); got != "250000000" {
			t.Errorf("fromAmount: got %q, want 250000000", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tool": "stargate",
			"estimate": {
				"toAmount": "249000000",
				"executionDuration": 180,
				"feeCosts": [{"name": "relayer", "amountUsd": "0.42"}],
				"gasCosts": [{"name": "send", "amountUsd": "0.08"}]
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	quote, err := client.Quote(context.Background(), QuoteRequest{
		FromChain:  8453,
		ToChain:    42161,
		FromAmount: "250000000",
	})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if quote.Tool != "stargate" {
		t.Errorf("tool: got %q, want stargate", quote.Tool)
	}
	if quote.Estimate.ToAmount != "249000000" {
		t.Errorf("toAmount: got %q", quote.Estimate.ToAmount)
	}
	if len(quote.Estimate.FeeCosts) != 1 {
		t.Errorf("fee costs: got %d entries, want 1", len(quote.Estimate.FeeCosts))
	}
}

func TestQuoteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"tool": "across", "estimate": {"toAmount": "1", "executionDuration": 60}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	quote, err := client.Quote(context.Background(), QuoteRequest{FromChain: 1, ToChain: 42161, FromAmount: "1"})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Tool != "across" {
		t.Errorf("tool: got %q, want across", quote.Tool)
	}
	if calls.Load() != 2 {
		t.Errorf("calls: got %d, want 2", calls.Load())
	}
}

func TestQuoteClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no route for pair", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Quote(context.Background(), QuoteRequest{FromChain: 1, ToChain: 42161}); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatal("expected error for empty url")
	}
}
