// Package backend talks to the analysis backend that runs the actual causal
// and Bayesian computations, and to the language model used for free-form
// replies. The guidance engine never computes analysis results itself; it
// forwards queries and renders what comes back.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout is the transport-level timeout for backend calls when
// the caller's context carries no earlier deadline.
const DefaultHTTPTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read for diagnostics.
const maxErrorBody = 4096

// Client is a JSON-over-HTTP client for the analysis backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOpts configures the backend client. BaseURL is required.
type ClientOpts struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient validates the base URL and returns a backend client.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing backend base URL: %w", err)
	}
	t := opts.Timeout
	if t <= 0 {
		t = DefaultHTTPTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: t},
	}, nil
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// RunQuery forwards a natural-language query and returns the backend's answer.
func (c *Client) RunQuery(ctx context.Context, query string) (string, error) {
	var resp queryResponse
	if err := c.postJSON(ctx, "/api/query", queryRequest{Query: query}, &resp); err != nil {
		return "", fmt.Errorf("running backend query: %w", err)
	}
	if resp.Answer == "" {
		return "The backend returned no answer for that query.", nil
	}
	return resp.Answer, nil
}

type benchmarkListResponse struct {
	Benchmarks []string `json:"benchmarks"`
}

// ListBenchmarks returns the benchmark suite names registered on the backend.
func (c *Client) ListBenchmarks(ctx context.Context) ([]string, error) {
	var resp benchmarkListResponse
	if err := c.getJSON(ctx, "/api/benchmarks", &resp); err != nil {
		return nil, fmt.Errorf("listing benchmarks: %w", err)
	}
	return resp.Benchmarks, nil
}

type benchmarkRunResponse struct {
	Report string `json:"report"`
}

// RunBenchmark runs one benchmark suite by name and returns its report.
func (c *Client) RunBenchmark(ctx context.Context, name string) (string, error) {
	var resp benchmarkRunResponse
	path := "/api/benchmarks/" + url.PathEscape(name) + "/run"
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("running benchmark %s: %w", name, err)
	}
	return resp.Report, nil
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// GenerateSummary asks the backend for a natural-language summary of the
// current analysis.
func (c *Client) GenerateSummary(ctx context.Context) (string, error) {
	var resp summaryResponse
	if err := c.postJSON(ctx, "/api/summary", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return resp.Summary, nil
}

type openPanelRequest struct {
	Panel string `json:"panel"`
}

// OpenAnalysis asks the dashboard to open the file-analysis dialog.
func (c *Client) OpenAnalysis(ctx context.Context) error {
	if err := c.postJSON(ctx, "/api/ui/open", openPanelRequest{Panel: "analysis"}, nil); err != nil {
		return fmt.Errorf("opening analysis dialog: %w", err)
	}
	return nil
}

// OpenHistory asks the dashboard to open the past-analyses browser.
func (c *Client) OpenHistory(ctx context.Context) error {
	if err := c.postJSON(ctx, "/api/ui/open", openPanelRequest{Panel: "history"}, nil); err != nil {
		return fmt.Errorf("opening history browser: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	slog.Debug("Client.do: calling backend", "method", req.Method, "url", req.URL.String())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("Client.do: backend returned error status", "status", resp.StatusCode, "url", req.URL.String())
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}
