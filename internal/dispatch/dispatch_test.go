package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"radiosim/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestPushDeliversConfig(t *testing.T) {
	var got struct {
		Config model.JobConfig `json:"config"`
	}
	received := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/start_simulation" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		close(received)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, discardLogger())
	d.Push(context.Background(), model.JobConfig{JobID: "job-1", SceneName: "warehouse"})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("worker never received the push")
	}
	if got.Config.JobID != "job-1" || got.Config.SceneName != "warehouse" {
		t.Errorf("config = %+v", got.Config)
	}
}

func TestPushSwallowsUnreachableWorker(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1", 50*time.Millisecond, discardLogger())
	// Must not panic or propagate anything.
	d.Push(context.Background(), model.JobConfig{JobID: "job-2"})
}

func TestPushSwallowsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, discardLogger())
	d.Push(context.Background(), model.JobConfig{JobID: "job-3"})
}
