// Package dispatch pushes freshly created jobs to the worker service on a
// best-effort basis. The poller is the authoritative fallback, so every
// failure here is swallowed.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"radiosim/internal/model"
)

// Dispatcher performs the single best-effort push to the worker's
// start-simulation endpoint.
type Dispatcher struct {
	workerURL string
	client    *http.Client
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher targeting workerURL with the given
// per-push timeout.
func NewDispatcher(workerURL string, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		workerURL: workerURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Push attempts to hand the job config to the worker once. Any failure
// (timeout, unreachable, rejected) is logged and discarded; it never reaches
// the submitting client.
func (d *Dispatcher) Push(ctx context.Context, cfg model.JobConfig) {
	if err := d.push(ctx, cfg); err != nil {
		d.logger.Warn("push dispatch failed, poller will pick the job up",
			"job_id", cfg.JobID, "error", err)
	}
}

func (d *Dispatcher) push(ctx context.Context, cfg model.JobConfig) error {
	body, err := json.Marshal(map[string]model.JobConfig{"config": cfg})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.workerURL+"/api/start_simulation", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("worker returned %s", resp.Status)
	}
	return nil
}
