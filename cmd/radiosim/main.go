package main

import (
	"context"
	"log"
	"os"

	"radiosim/internal/api"
	"radiosim/internal/config"
	"radiosim/internal/dispatch"
	"radiosim/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("radiosim: starting",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
		"worker_url", cfg.WorkerURL,
	)

	var db store.Store
	switch cfg.StoreBackend {
	case "redis":
		db, err = store.NewRedisStore(context.Background(), cfg.RedisAddr)
	default:
		db, err = store.NewSQLiteStore(cfg.DBPath)
	}
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	d := dispatch.NewDispatcher(cfg.WorkerURL, cfg.DispatchTimeout, logger)
	srv := api.NewServer(cfg.ListenAddr, db, d, cfg.AssetsDir, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
