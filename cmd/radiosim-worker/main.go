package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"radiosim/internal/config"
	"radiosim/internal/sim"
	"radiosim/internal/storeclient"
	"radiosim/internal/worker"
)

const storeClientTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("radiosim-worker: starting",
		"worker_addr", cfg.WorkerAddr,
		"store_url", cfg.StoreURL,
		"solver_url", cfg.SolverURL,
		"poll_interval", cfg.PollInterval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := storeclient.New(cfg.StoreURL, storeClientTimeout)
	solver := sim.NewHTTPSolver(cfg.SolverURL)
	exec := sim.NewExecutor(jobs, solver, logger)

	poller := worker.NewPoller(jobs, exec, cfg.PollInterval, logger)
	go poller.Run(ctx)

	srv := worker.NewServer(cfg.WorkerAddr, exec, logger)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}
