// Package client talks to a process-graph backend over its REST API:
// capability discovery, process catalog listing, server-side graph
// validation, synchronous execution, and saved user-defined processes.
// Batch jobs build on this package; see the jobs package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/randalmurphal/procgraph/pkg/procgraph"
	pgerrors "github.com/randalmurphal/procgraph/pkg/procgraph/errors"
	"github.com/randalmurphal/procgraph/pkg/procgraph/observability"
	"github.com/randalmurphal/procgraph/pkg/procgraph/registry"
)

// Client is a connection to a process-graph backend.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string

	logger  *logSink
	spans   observability.SpanManager
	metrics observability.MetricsRecorder

	catalog *registry.Registry
}

// Capabilities describes what a backend supports, from its root document.
type Capabilities struct {
	APIVersion     string   `json:"api_version"`
	BackendVersion string   `json:"backend_version"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Endpoints      []string `json:"-"`
}

// capabilitiesDoc is the wire shape of the root document.
type capabilitiesDoc struct {
	APIVersion     string `json:"api_version"`
	BackendVersion string `json:"backend_version"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Endpoints      []struct {
		Path    string   `json:"path"`
		Methods []string `json:"methods"`
	} `json:"endpoints"`
}

// ValidationIssue is one finding from server-side graph validation.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Connect establishes a connection to a backend and verifies it by
// fetching the root capabilities document.
func Connect(ctx context.Context, url string, opts ...Option) (*Client, error) {
	settings := defaultSettings()
	for _, opt := range opts {
		if err := opt(settings); err != nil {
			return nil, err
		}
	}

	c := &Client{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: settings.buildHTTPClient(),
		headers:    settings.headers(),
		logger:     &logSink{logger: settings.logger},
		spans:      settings.spans,
		metrics:    settings.metrics,
		catalog:    registry.New(),
	}

	if _, err := c.Capabilities(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Catalog returns the cached process catalog. It is empty until
// Processes has been called.
func (c *Client) Catalog() *registry.Registry { return c.catalog }

// Capabilities fetches the backend's root document.
func (c *Client) Capabilities(ctx context.Context) (*Capabilities, error) {
	var doc capabilitiesDoc
	if err := c.Do(ctx, http.MethodGet, "/", nil, &doc); err != nil {
		return nil, err
	}

	caps := &Capabilities{
		APIVersion:     doc.APIVersion,
		BackendVersion: doc.BackendVersion,
		Title:          doc.Title,
		Description:    doc.Description,
	}
	for _, ep := range doc.Endpoints {
		caps.Endpoints = append(caps.Endpoints, ep.Path)
	}
	return caps, nil
}

// Processes fetches the backend's predefined process catalog and caches
// it in the client's registry under the default namespace.
func (c *Client) Processes(ctx context.Context) ([]registry.Spec, error) {
	var doc struct {
		Processes []registry.Spec `json:"processes"`
	}
	if err := c.Do(ctx, http.MethodGet, "/processes", nil, &doc); err != nil {
		return nil, err
	}

	c.catalog.RegisterAll("", doc.Processes)
	return doc.Processes, nil
}

// ValidateGraph submits a flattened graph for server-side validation.
// A nil error with a non-empty issue list means the backend accepted
// the request but found problems in the graph.
func (c *Client) ValidateGraph(ctx context.Context, graph procgraph.FlatGraph) ([]ValidationIssue, error) {
	body := map[string]any{"process_graph": graph}

	var doc struct {
		Errors []ValidationIssue `json:"errors"`
	}
	if err := c.Do(ctx, http.MethodPost, "/validation", body, &doc); err != nil {
		return nil, err
	}
	return doc.Errors, nil
}

// ExecuteSync submits a flattened graph for synchronous execution and
// returns the raw result body. The Content-Type of the result depends
// on the terminal node of the graph.
func (c *Client) ExecuteSync(ctx context.Context, graph procgraph.FlatGraph) ([]byte, error) {
	c.metrics.RecordGraphSize(ctx, int64(len(graph)))

	body := map[string]any{
		"process": map[string]any{"process_graph": graph},
	}
	return c.doRaw(ctx, http.MethodPost, "/result", body)
}

// SaveProcess stores a user-defined process on the backend under its id.
func (c *Client) SaveProcess(ctx context.Context, proc *procgraph.Process) error {
	if proc == nil || proc.ID == "" {
		return fmt.Errorf("client: process with a non-empty id is required")
	}
	return c.Do(ctx, http.MethodPut, "/process_graphs/"+proc.ID, proc, nil)
}

// SavedProcesses lists the user-defined processes stored on the backend.
func (c *Client) SavedProcesses(ctx context.Context) ([]registry.Spec, error) {
	var doc struct {
		Processes []registry.Spec `json:"processes"`
	}
	if err := c.Do(ctx, http.MethodGet, "/process_graphs", nil, &doc); err != nil {
		return nil, err
	}
	return doc.Processes, nil
}

// DeleteProcess removes a user-defined process from the backend.
func (c *Client) DeleteProcess(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/process_graphs/"+id, nil, nil)
}

// Do performs a JSON request against the backend. A nil body sends no
// payload; a nil out discards the response body. Non-2xx responses are
// returned as *errors.HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	ctx, span := c.spans.StartRequestSpan(ctx, method, path)
	done := observability.TimedOperation()

	data, err := c.send(ctx, method, path, body)

	c.metrics.RecordRequest(ctx, path, elapsed(done()), err)
	c.spans.EndSpanWithError(span, err)
	return data, err
}

func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.logger.request(method, path)
	done := observability.TimedOperation()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.requestError(method, path, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.response(method, path, resp.StatusCode, done())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp.StatusCode, path, data)
	}
	return data, nil
}

// httpError builds an *errors.HTTPError from a backend error body,
// tolerating bodies that are not the standard {"code","message"} shape.
func httpError(status int, path string, body []byte) error {
	httpErr := &pgerrors.HTTPError{StatusCode: status, Endpoint: path}

	var doc struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		httpErr.Code = doc.Code
		httpErr.Message = doc.Message
	}
	return httpErr
}
