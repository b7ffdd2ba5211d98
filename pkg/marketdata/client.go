package marketdata

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

// HTTPClient implements Client over the vendor's HTTP API.
//
// HTTPClient holds no per-call state and is safe for concurrent use; create
// one per batch and share it across workers.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client from cfg.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClient{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// GetCost returns the USD price of req.
func (c *HTTPClient) GetCost(ctx context.Context, req Request) (float64, error) {
	form := c.form(req)
	form.Set("mode", "historical-streaming")

	resp, err := c.post(ctx, OpGetCost, form)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	var cost float64
	if err := json.NewDecoder(resp.Body).Decode(&cost); err != nil {
		return 0, &APIError{Op: OpGetCost, Status: resp.StatusCode, Err: fmt.Errorf("decode cost: %w", err)}
	}
	return cost, nil
}

// GetRange streams the zstd-compressed DBN payload for req.
func (c *HTTPClient) GetRange(ctx context.Context, req Request) (io.ReadCloser, int64, error) {
	form := c.form(req)
	form.Set("encoding", "dbn")
	form.Set("compression", "zstd")

	resp, err := c.post(ctx, OpGetRange, form)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *HTTPClient) form(req Request) url.Values {
	form := url.Values{}
	form.Set("dataset", req.Dataset)
	form.Set("schema", req.Schema)
	form.Set("symbols", req.Symbols)
	form.Set("stype_in", req.stypeIn())
	form.Set("start", req.Start.UTC().Format(time.RFC3339))
	form.Set("end", req.End.UTC().Format(time.RFC3339))
	return form
}

// post sends a form request and returns the response on 2xx. Non-2xx
// responses are closed and converted to *APIError.
func (c *HTTPClient) post(ctx context.Context, op string, form url.Values) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/"+op, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.apiKey, "")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return nil, &APIError{
		Op:      op,
		Status:  resp.StatusCode,
		Message: readDetail(resp.Body),
		Err:     classifyStatus(resp.StatusCode),
	}
}

// readDetail extracts the error detail from a JSON error body, falling back
// to the raw text.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(raw))
}
