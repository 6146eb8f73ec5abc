// Package jobs manages batch jobs on a process-graph backend: creating
// a job from a flattened graph, starting it, and polling its status
// with exponential backoff until it reaches a terminal state.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/randalmurphal/procgraph/pkg/procgraph"
	"github.com/randalmurphal/procgraph/pkg/procgraph/config"
	pgerrors "github.com/randalmurphal/procgraph/pkg/procgraph/errors"
	"github.com/randalmurphal/procgraph/pkg/procgraph/observability"
)

// Status is a backend job lifecycle state.
type Status string

const (
	StatusCreated  Status = "created"
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusFinished, StatusError, StatusCanceled:
		return true
	}
	return false
}

// Backend is the slice of the client API the jobs package needs.
// *client.Client satisfies it.
type Backend interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Job is a handle to a batch job on the backend.
type Job struct {
	// ID is the backend-assigned job identifier.
	ID string

	backend Backend
	poll    config.Poll
}

// Info is the backend's view of a job.
type Info struct {
	ID       string  `json:"id"`
	Title    string  `json:"title,omitempty"`
	Status   Status  `json:"status"`
	Progress float64 `json:"progress,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// Results describes where a finished job's outputs can be fetched.
type Results struct {
	Assets map[string]Asset `json:"assets"`
}

// Asset is one downloadable output of a finished job.
type Asset struct {
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// CreateOption customizes job creation.
type CreateOption func(*createRequest)

type createRequest struct {
	Process     map[string]any `json:"process"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
}

// WithTitle sets a human-readable job title.
func WithTitle(title string) CreateOption {
	return func(r *createRequest) { r.Title = title }
}

// WithDescription sets a job description.
func WithDescription(desc string) CreateOption {
	return func(r *createRequest) { r.Description = desc }
}

// Create registers a batch job for a flattened graph without starting
// it. The request carries a client-generated idempotency key so a
// retried create does not register the job twice.
func Create(ctx context.Context, backend Backend, graph procgraph.FlatGraph, opts ...CreateOption) (*Job, error) {
	return CreateWithPoll(ctx, backend, graph, config.Default().Poll, opts...)
}

// CreateWithPoll is Create with explicit polling settings for the
// returned handle.
func CreateWithPoll(ctx context.Context, backend Backend, graph procgraph.FlatGraph, poll config.Poll, opts ...CreateOption) (*Job, error) {
	req := createRequest{
		Process: map[string]any{"process_graph": graph},
	}
	for _, opt := range opts {
		opt(&req)
	}

	var created struct {
		ID string `json:"id"`
	}
	path := "/jobs?request_id=" + uuid.NewString()
	if err := backend.Do(ctx, http.MethodPost, path, req, &created); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create job: backend returned no job id")
	}

	return &Job{ID: created.ID, backend: backend, poll: poll}, nil
}

// Attach returns a handle to an existing job by id.
func Attach(backend Backend, id string) *Job {
	return &Job{ID: id, backend: backend, poll: config.Default().Poll}
}

// Start queues the job for execution.
func (j *Job) Start(ctx context.Context) error {
	if err := j.backend.Do(ctx, http.MethodPost, "/jobs/"+j.ID+"/results", nil, nil); err != nil {
		return fmt.Errorf("start job %s: %w", j.ID, err)
	}
	return nil
}

// Status fetches the job's current state.
func (j *Job) Status(ctx context.Context) (Info, error) {
	var info Info
	if err := j.backend.Do(ctx, http.MethodGet, "/jobs/"+j.ID, nil, &info); err != nil {
		return Info{}, fmt.Errorf("job %s status: %w", j.ID, err)
	}
	return info, nil
}

// PollUntilDone polls the job until it reaches a terminal state,
// backing off exponentially between checks. A job ending in the error
// state is returned as *errors.JobFailedError; cancellation of ctx
// stops polling with the context's error.
//
// Transient status-check failures are retried within the backoff
// schedule; permanent ones abort polling. A nil logger disables
// progress logging.
func (j *Job) PollUntilDone(ctx context.Context, logger *slog.Logger) (Info, error) {
	ctx, span := observability.StartPollSpan(ctx, j.ID)
	done := observability.TimedOperation()

	info, err := j.pollLoop(ctx, logger)

	observability.LogJobDone(logger, j.ID, string(info.Status), done())
	observability.EndSpanWithError(span, err)
	return info, err
}

func (j *Job) pollLoop(ctx context.Context, logger *slog.Logger) (Info, error) {
	bo := backoff.NewExponentialBackOff()
	if j.poll.InitialInterval != 0 {
		bo.InitialInterval = j.poll.InitialInterval.Std()
	}
	if j.poll.MaxInterval != 0 {
		bo.MaxInterval = j.poll.MaxInterval.Std()
	}
	bo.MaxElapsedTime = j.poll.MaxElapsed.Std()
	bo.Reset()

	var last Info
	for {
		info, err := j.Status(ctx)
		if err != nil {
			if !pgerrors.IsRetryable(err) {
				return last, err
			}
		} else {
			last = info
			observability.LogJobStatus(logger, j.ID, string(info.Status))

			switch info.Status {
			case StatusFinished:
				return info, nil
			case StatusCanceled:
				return info, nil
			case StatusError:
				return info, &pgerrors.JobFailedError{JobID: j.ID, Message: info.Message}
			}
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return last, fmt.Errorf("job %s: polling gave up after %s", j.ID, bo.MaxElapsedTime)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, ctx.Err()
		case <-timer.C:
		}
	}
}

// Results fetches the result listing of a finished job.
func (j *Job) Results(ctx context.Context) (Results, error) {
	var results Results
	if err := j.backend.Do(ctx, http.MethodGet, "/jobs/"+j.ID+"/results", nil, &results); err != nil {
		return Results{}, fmt.Errorf("job %s results: %w", j.ID, err)
	}
	return results, nil
}

// Delete removes the job from the backend, canceling it if running.
func (j *Job) Delete(ctx context.Context) error {
	if err := j.backend.Do(ctx, http.MethodDelete, "/jobs/"+j.ID, nil, nil); err != nil {
		return fmt.Errorf("delete job %s: %w", j.ID, err)
	}
	return nil
}
