package jobs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/procgraph/pkg/procgraph"
	"github.com/randalmurphal/procgraph/pkg/procgraph/config"
	pgerrors "github.com/randalmurphal/procgraph/pkg/procgraph/errors"
	"github.com/randalmurphal/procgraph/pkg/procgraph/jobs"
)

// fakeBackend scripts responses per method+path prefix and records the
// requests it served.
type fakeBackend struct {
	statuses []jobs.Info // consumed one per status poll
	statusAt int
	failWith error // returned from status polls before statuses run

	created  []map[string]any
	started  int
	deleted  int
	lastPath string
}

func (f *fakeBackend) Do(ctx context.Context, method, path string, body, out any) error {
	f.lastPath = path

	switch {
	case method == http.MethodPost && strings.HasPrefix(path, "/jobs?"):
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		f.created = append(f.created, req)
		return json.Unmarshal([]byte(`{"id": "job-42"}`), out)

	case method == http.MethodPost && strings.HasSuffix(path, "/results"):
		f.started++
		return nil

	case method == http.MethodGet && strings.HasSuffix(path, "/results"):
		return json.Unmarshal([]byte(`{"assets": {"out.tif": {"href": "https://backend.example/dl/out.tif", "type": "image/tiff"}}}`), out)

	case method == http.MethodGet && strings.HasPrefix(path, "/jobs/"):
		if f.failWith != nil {
			err := f.failWith
			f.failWith = nil
			return err
		}
		if f.statusAt >= len(f.statuses) {
			return fmt.Errorf("unexpected status poll %d", f.statusAt)
		}
		info := f.statuses[f.statusAt]
		f.statusAt++
		data, _ := json.Marshal(info)
		return json.Unmarshal(data, out)

	case method == http.MethodDelete:
		f.deleted++
		return nil
	}
	return fmt.Errorf("unexpected request %s %s", method, path)
}

// fastPoll keeps test polling in the millisecond range.
func fastPoll() config.Poll {
	return config.Poll{
		InitialInterval: config.Duration(time.Millisecond),
		MaxInterval:     config.Duration(5 * time.Millisecond),
		MaxElapsed:      config.Duration(time.Second),
	}
}

func testGraph(t *testing.T) procgraph.FlatGraph {
	t.Helper()
	g := procgraph.New()
	g.AddNode("add", procgraph.Args{"x": 1, "y": 2})
	fg, err := g.Flatten()
	require.NoError(t, err)
	return fg
}

// TestCreate tests job registration with the graph payload and
// idempotency key.
func TestCreate(t *testing.T) {
	backend := &fakeBackend{}
	job, err := jobs.Create(context.Background(), backend, testGraph(t),
		jobs.WithTitle("nightly ndvi"), jobs.WithDescription("daily run"))
	require.NoError(t, err)

	assert.Equal(t, "job-42", job.ID)
	require.Len(t, backend.created, 1)

	req := backend.created[0]
	assert.Equal(t, "nightly ndvi", req["title"])
	assert.Equal(t, "daily run", req["description"])

	process, ok := req["process"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, process, "process_graph")

	// The create path carries a client-generated request id.
	assert.Contains(t, backend.lastPath, "/jobs?request_id=")
}

// TestCreate_NoID tests rejection of a create response without an id.
func TestCreate_NoID(t *testing.T) {
	_, err := jobs.Create(context.Background(), emptyIDBackend{}, testGraph(t))
	assert.ErrorContains(t, err, "no job id")
}

type emptyIDBackend struct{}

func (emptyIDBackend) Do(_ context.Context, _, _ string, _, out any) error {
	return json.Unmarshal([]byte(`{}`), out)
}

// TestJob_StartAndStatus tests the start call and a single status fetch.
func TestJob_StartAndStatus(t *testing.T) {
	backend := &fakeBackend{
		statuses: []jobs.Info{{ID: "job-42", Status: jobs.StatusQueued}},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	require.NoError(t, job.Start(context.Background()))
	assert.Equal(t, 1, backend.started)

	info, err := job.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusQueued, info.Status)
}

// TestJob_PollUntilDone_Finished tests polling through to success.
func TestJob_PollUntilDone_Finished(t *testing.T) {
	backend := &fakeBackend{
		statuses: []jobs.Info{
			{ID: "job-42", Status: jobs.StatusQueued},
			{ID: "job-42", Status: jobs.StatusRunning, Progress: 40},
			{ID: "job-42", Status: jobs.StatusRunning, Progress: 90},
			{ID: "job-42", Status: jobs.StatusFinished},
		},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	info, err := job.PollUntilDone(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFinished, info.Status)
	assert.Equal(t, 4, backend.statusAt)
}

// TestJob_PollUntilDone_Error tests that a failed job surfaces as
// JobFailedError.
func TestJob_PollUntilDone_Error(t *testing.T) {
	backend := &fakeBackend{
		statuses: []jobs.Info{
			{ID: "job-42", Status: jobs.StatusRunning},
			{ID: "job-42", Status: jobs.StatusError, Message: "out of memory"},
		},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	_, err = job.PollUntilDone(context.Background(), nil)
	require.Error(t, err)

	var jobErr *pgerrors.JobFailedError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "job-42", jobErr.JobID)
	assert.Equal(t, "out of memory", jobErr.Message)
}

// TestJob_PollUntilDone_TransientFailure tests that retryable status
// errors do not abort polling.
func TestJob_PollUntilDone_TransientFailure(t *testing.T) {
	backend := &fakeBackend{
		failWith: &pgerrors.HTTPError{StatusCode: 503, Endpoint: "/jobs/job-42"},
		statuses: []jobs.Info{
			{ID: "job-42", Status: jobs.StatusFinished},
		},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	info, err := job.PollUntilDone(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFinished, info.Status)
}

// TestJob_PollUntilDone_PermanentFailure tests that non-retryable
// status errors abort polling.
func TestJob_PollUntilDone_PermanentFailure(t *testing.T) {
	backend := &fakeBackend{
		failWith: &pgerrors.HTTPError{StatusCode: 401, Endpoint: "/jobs/job-42"},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	_, err = job.PollUntilDone(context.Background(), nil)
	require.Error(t, err)

	var httpErr *pgerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 401, httpErr.StatusCode)
}

// TestJob_PollUntilDone_ContextCanceled tests polling cancellation.
func TestJob_PollUntilDone_ContextCanceled(t *testing.T) {
	backend := &fakeBackend{
		statuses: []jobs.Info{
			{ID: "job-42", Status: jobs.StatusRunning},
			{ID: "job-42", Status: jobs.StatusRunning},
			{ID: "job-42", Status: jobs.StatusRunning},
		},
	}
	job, err := jobs.CreateWithPoll(context.Background(), backend, testGraph(t), fastPoll())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Millisecond)
	defer cancel()

	_, err = job.PollUntilDone(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestJob_Results tests the result listing of a finished job.
func TestJob_Results(t *testing.T) {
	job := jobs.Attach(&fakeBackend{}, "job-42")

	results, err := job.Results(context.Background())
	require.NoError(t, err)
	require.Contains(t, results.Assets, "out.tif")
	assert.Equal(t, "https://backend.example/dl/out.tif", results.Assets["out.tif"].Href)
	assert.Equal(t, "image/tiff", results.Assets["out.tif"].Type)
}

// TestJob_Delete tests job removal.
func TestJob_Delete(t *testing.T) {
	backend := &fakeBackend{}
	job := jobs.Attach(backend, "job-42")

	require.NoError(t, job.Delete(context.Background()))
	assert.Equal(t, 1, backend.deleted)
}

// TestStatus_Terminal tests terminal-state classification.
func TestStatus_Terminal(t *testing.T) {
	assert.True(t, jobs.StatusFinished.Terminal())
	assert.True(t, jobs.StatusError.Terminal())
	assert.True(t, jobs.StatusCanceled.Terminal())
	assert.False(t, jobs.StatusCreated.Terminal())
	assert.False(t, jobs.StatusQueued.Terminal())
	assert.False(t, jobs.StatusRunning.Terminal())
}
