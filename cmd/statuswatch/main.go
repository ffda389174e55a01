package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/config"
	"github.com/hamed0406/statuswatch/internal/httpapi"
	"github.com/hamed0406/statuswatch/internal/logging"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/repo/memory"
	"github.com/hamed0406/statuswatch/internal/repo/postgres"
	"github.com/hamed0406/statuswatch/internal/scheduler"
)

type stores interface {
	repo.ServiceStore
	repo.IncidentStore
}

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store stores
	closeStore := func() {}
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pg.Close()
		closeStore = pg.Close
		if err := pg.Init(ctx); err != nil {
			// log.Fatalf exits without running defers
			pg.Close()
			log.Fatalf("schema init failed: %v", err)
		}
		fmt.Println("*  Database connection established")
		store = pg
	} else {
		fmt.Println("*  DATABASE_URL not set, using in-memory store")
		store = memory.New()
	}

	if err := loadServices(ctx, store, cfg.ServicesFile, logger); err != nil {
		closeStore()
		log.Fatalf("loading %s failed: %v", cfg.ServicesFile, err)
	}

	tracker := scheduler.NewIncidentTracker(logger, store, store)
	monitor := scheduler.NewMonitor(
		logger,
		store,
		tracker,
		probe.NewHTTPChecker(cfg.ProbeTimeout),
		probe.NewMinecraftChecker(cfg.ProbeTimeout),
		cfg.CheckInterval,
		cfg.ProbeTimeout,
	)

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, store, store)
		go func() {
			logger.Info("status_listen", zap.String("addr", cfg.StatusAddr))
			if err := http.ListenAndServe(cfg.StatusAddr, api.Router()); err != nil {
				logger.Error("status_server_error", zap.Error(err))
			}
		}()
		fmt.Println("*  Status endpoints listening on " + cfg.StatusAddr)
	}

	fmt.Println("*  Starting status monitoring...")
	fmt.Println("*  Press Ctrl+C to stop.")
	monitor.Run(ctx)
}

// loadServices reads the bootstrap file, a flat JSON object of
// name -> target pairs, and upserts each service. A name that fails to
// normalize is skipped with a warning; an unreadable file is fatal.
func loadServices(ctx context.Context, store repo.ServiceStore, path string, logger *zap.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var services map[string]string
	if err := json.Unmarshal(raw, &services); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	added := 0
	for name, target := range services {
		if _, err := store.UpsertService(ctx, name, target); err != nil {
			logger.Warn("service_bootstrap_skipped", zap.String("name", name), zap.Error(err))
			fmt.Fprintf(os.Stderr, "error adding service %s: %v\n", name, err)
			continue
		}
		added++
	}
	if added > 0 {
		fmt.Printf("*  %d services registered\n", added)
	}
	return nil
}
