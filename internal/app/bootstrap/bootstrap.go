package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"nodegate/internal/gateway"
	"nodegate/internal/gateway/adapters/memory"
	postgresadapter "nodegate/internal/gateway/adapters/postgres"
	"nodegate/internal/platform/auth"
	"nodegate/internal/platform/config"
	"nodegate/internal/platform/db"
	"nodegate/internal/platform/httpserver"
	"nodegate/internal/platform/messaging"
	"nodegate/internal/platform/tlscert"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server *httpserver.Server
	logger *slog.Logger
}

type WorkerApp struct {
	module   gateway.Module
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	token, err := auth.LoadOrCreate(cfg.StorageDir, logger)
	if err != nil {
		return nil, err
	}

	// The in-memory engine stands in until the embedded node engine wiring
	// is finalized.
	engine := memory.NewEngine()
	module := gateway.NewModule(gateway.Dependencies{
		Engine:    engine,
		Source:    engine,
		Outbox:    memory.NewOutboxStore(),
		Publisher: memory.NewSink(),
		Clock:     postgresadapter.SystemClock{},
		PageSize:  cfg.PageSize,
		Logger:    logger,
	})

	server := httpserver.New(module, token, logger, cfg.ListenAddr)
	if !cfg.DisableTLS {
		certPath, keyPath, err := tlscert.LoadOrCreate(cfg.StorageDir, cfg.TLSExtraHosts, logger)
		if err != nil {
			return nil, err
		}
		server.UseTLS(certPath, keyPath)
	}

	return &APIApp{
		server: server,
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	broker, err := messaging.NewBroker(cfg.BrokerURLs, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	engine := memory.NewEngine()
	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := gateway.NewModule(gateway.Dependencies{
		Engine:         engine,
		Source:         engine,
		Outbox:         repo,
		Publisher:      broker,
		Clock:          postgresadapter.SystemClock{},
		PageSize:       cfg.PageSize,
		EventsTopic:    cfg.EventsTopic,
		PollInterval:   cfg.OutboxPollInterval,
		InitialBackoff: cfg.OutboxInitialBackoff,
		MaxBackoff:     cfg.OutboxMaxBackoff,
		Logger:         logger,
	})

	return &WorkerApp{
		module:   module,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return nil
}

// Run drives the event recorder and outbox publisher until ctx is cancelled
// or one of them fails.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.module.Recorder.Run(ctx)
	}()
	go func() {
		errCh <- w.module.Publisher.Run(ctx)
	}()

	err := <-errCh
	cancel()
	<-errCh
	return err
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}
