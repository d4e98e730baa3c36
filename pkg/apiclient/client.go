package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Client performs JSON calls against one upstream service. Every failure it
// returns is an *Error, whatever the cause.
type Client struct {
	name       string
	headers    http.Header
	httpClient *http.Client
	metrics    *Metrics
}

// NewClient creates a client labelled with the upstream service name.
func NewClient(name string, timeout time.Duration) *Client {
	return &Client{
		name: name,
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: NewMetrics(),
	}
}

// Name returns the service label used in logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// Request describes one upstream call.
type Request struct {
	Method  string
	URL     string
	Body    interface{}
	Headers http.Header
}

// Result reports what came back from a successful call.
type Result struct {
	StatusCode int
	NoContent  bool
}

// Do performs the call, merging the JSON headers with req.Headers. A 204 sets
// Result.NoContent and leaves out untouched; any other 2xx body is decoded
// into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) (Result, error) {
	start := time.Now()
	res, err := c.do(ctx, req, out)
	c.metrics.observe(c.name, req.Method, res.StatusCode, err, time.Since(start))
	if err != nil {
		log.Printf("❌ [%s] %s %s: %v", c.name, req.Method, req.URL, err)
	}
	return res, err
}

// Get is shorthand for a GET with no body.
func (c *Client) Get(ctx context.Context, url string, out interface{}) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url}, out)
}

// Post is shorthand for a JSON POST.
func (c *Client) Post(ctx context.Context, url string, body, out interface{}) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body}, out)
}

func (c *Client) do(ctx context.Context, req Request, out interface{}) (Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if req.Body != nil {
		requestBody, err := json.Marshal(req.Body)
		if err != nil {
			return Result{}, newError(0, "failed to encode request body: %v", err)
		}
		bodyReader = bytes.NewReader(requestBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return Result{}, newError(0, "failed to build request: %v", err)
	}
	for k, v := range c.headers {
		httpReq.Header[k] = v
	}
	for k, v := range req.Headers {
		httpReq.Header[k] = v
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, newError(0, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, newError(resp.StatusCode, "failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{StatusCode: resp.StatusCode}, statusError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	if resp.StatusCode == http.StatusNoContent {
		return Result{StatusCode: resp.StatusCode, NoContent: true}, nil
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return Result{StatusCode: resp.StatusCode}, newError(resp.StatusCode, "malformed JSON response: %v", err)
		}
	}
	return Result{StatusCode: resp.StatusCode}, nil
}

// statusError classifies a non-2xx response.
func statusError(status int, contentType string, body []byte) *Error {
	text := strings.TrimSpace(string(body))
	var parsed map[string]interface{}
	if isJSON(contentType) && json.Unmarshal(body, &parsed) == nil {
		if detail, ok := parsed["detail"]; ok {
			text = detailText(detail)
		}
	}

	switch status {
	case http.StatusNotFound:
		return newError(status, "not found (HTTP %d): %s", status, text)
	case http.StatusConflict:
		return newError(status, "conflict (HTTP %d): %s", status, text)
	case http.StatusUnprocessableEntity:
		return newError(status, "validation error (HTTP %d): %s", status, text)
	case http.StatusInternalServerError:
		return newError(status, "internal server error (HTTP %d): %s", status, text)
	default:
		return newError(status, "HTTP %d: %s", status, text)
	}
}

func detailText(detail interface{}) string {
	if s, ok := detail.(string); ok {
		return s
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return fmt.Sprint(detail)
	}
	return string(b)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
