// Package storeclient is the HTTP client for the job-store service, used by
// the worker to discover, claim, and report on jobs across process
// boundaries.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"radiosim/internal/model"
	"radiosim/internal/store"
)

// Client talks to the job-store API. The base URL and timeout are fixed at
// construction; nothing is read from ambient state at call time.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the job store at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateJob submits a new job.
func (c *Client) CreateJob(ctx context.Context, cfg model.JobConfig) (*model.Job, error) {
	body, err := json.Marshal(map[string]model.JobConfig{"config": cfg})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var j model.Job
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &j); err != nil {
		// A conflict on create means the id is taken, not a claim race.
		if errors.Is(err, store.ErrNotPending) {
			return nil, store.ErrExists
		}
		return nil, err
	}
	return &j, nil
}

// GetJob fetches a single job record.
func (c *Client) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJobs fetches every job record in backlog order.
func (c *Client) ListJobs(ctx context.Context) ([]*model.Job, error) {
	var jobs []*model.Job
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJob merges a status update into a job record.
func (c *Client) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	body, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	return c.do(ctx, http.MethodPut, "/jobs/"+id, body, nil)
}

// ClaimJob attempts the atomic pending-to-processing transition.
func (c *Client) ClaimJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/jobs/"+id+"/claim", nil, nil)
}

// DeleteJob removes a job record and its backlog entry.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/jobs/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return store.ErrNotPending
	case resp.StatusCode >= 300:
		return fmt.Errorf("%s %s: store returned %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
