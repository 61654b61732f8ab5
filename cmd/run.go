package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"prizewheel/api"
	"prizewheel/config"
	"prizewheel/database"
	"prizewheel/events"
	"prizewheel/infrastructure"
	"prizewheel/observability"
	"prizewheel/repository"
	"prizewheel/repository/memory"
	"prizewheel/service"
)

// SetupLogging configures logrus from LOG_LEVEL and LOG_FORMAT
func SetupLogging(cfg *config.Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// stores is the storage backend selected by STORE_BACKEND
type stores struct {
	participants service.ParticipantRepository
	claims       service.ClaimStore
	spinEvents   service.SpinEventRepository
	uowFactory   service.UnitOfWorkFactory
	close        func()
}

func openStores(ctx context.Context, cfg *config.Config, eventBus *events.Bus) (*stores, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Warn("Using the in-memory store, claims are lost on restart")
		store := memory.NewStore()
		return &stores{
			participants: store,
			claims:       store,
			spinEvents:   store,
			uowFactory:   memory.NewUnitOfWorkFactory(store, eventBus),
			close:        func() {},
		}, nil
	}

	databaseURL := cfg.GetDatabaseURL()
	log.WithField("url", database.RedactURL(databaseURL)).Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	var claims service.ClaimStore
	switch cfg.ClaimStrategy {
	case config.ClaimStrategyTransactional:
		claims = repository.NewTransactionalClaimStore(db, cfg.ClaimMaxRetries)
	default:
		claims = repository.NewConditionalClaimStore(db)
	}
	log.WithField("strategy", cfg.ClaimStrategy).Info("Claim store selected")

	return &stores{
		participants: repository.NewParticipantRepository(db),
		claims:       claims,
		spinEvents:   repository.NewSpinEventRepository(db),
		uowFactory:   repository.NewUnitOfWorkFactory(db, eventBus),
		close:        db.Close,
	}, nil
}

// Run initializes and starts the HTTP service until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting prize wheel...")

	if err := cfg.PrizeTable.Validate(); err != nil {
		return &service.ConfigurationError{Reason: err.Error()}
	}

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(flushCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	if cfg.StoreBackend == config.StoreBackendPostgres {
		if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	eventBus := events.NewBus()
	backend, err := openStores(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer backend.close()

	if cfg.NATSEnabled {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()
		if err := natsClient.EnsureClaimStream(); err != nil {
			return fmt.Errorf("failed to set up NATS stream: %w", err)
		}
		infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), metrics).SubscribeTo(eventBus)
		log.Info("Publishing claim events to NATS")
	}

	if cfg.DiscordToken != "" {
		announcer, err := infrastructure.NewDiscordAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID, metrics)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord announcer: %w", err)
		}
		defer func() {
			if err := announcer.Close(); err != nil {
				log.WithError(err).Warn("Error closing Discord announcer")
			}
		}()
		announcer.SubscribeTo(eventBus)
	}

	coordinator := service.NewClaimCoordinator(backend.claims, backend.spinEvents, eventBus, metrics)
	engine := service.NewSelectionEngine(service.CryptoSource{})
	participantService := service.NewParticipantService(backend.uowFactory, backend.participants, coordinator, engine, cfg.PrizeTable)
	reportService := service.NewReportService(backend.spinEvents, cfg.PrizeTable)

	sessions := service.NewSessionRegistry(coordinator, engine, cfg.PrizeTable, cfg.SessionTTL)
	go sessions.Run(ctx)

	handlers := api.New(participantService, reportService, sessions, cfg.PrizeTable, metrics)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down prize wheel...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down HTTP server")
	}
	// Subscribers are closed by the deferred calls above once in-flight events are delivered
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Event handlers did not finish before shutdown")
	}

	log.Info("Shutdown completed")
	return nil
}

// Report writes the prize tally of the audit log to w
func Report(ctx context.Context, cfg *config.Config, w io.Writer) error {
	backend, err := openStores(ctx, cfg, events.NewBus())
	if err != nil {
		return err
	}
	defer backend.close()

	report, err := service.NewReportService(backend.spinEvents, cfg.PrizeTable).PrizeReport(ctx)
	if err != nil {
		return err
	}
	return WriteReport(w, report)
}

// WriteReport renders a prize report as an aligned table
func WriteReport(w io.Writer, report *service.PrizeReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIZE\tCOUNT\tOBSERVED\tEXPECTED")
	for _, line := range report.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%.1f%%\n",
			line.Prize, line.Count, line.ObservedShare*100, line.ExpectedWeight*100)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\t\n", report.Total)
	return tw.Flush()
}
