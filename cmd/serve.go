package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fireworks/api"
	"fireworks/application"
	"fireworks/config"
	"fireworks/database"
	"fireworks/domain/interfaces"
	"fireworks/engine"
	"fireworks/infrastructure"
	"fireworks/infrastructure/observability"
	"fireworks/repository"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	rewardWorkers   = 4
	rewardQueueSize = 1024
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Get())
		},
	}
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting fireworks server")

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down metrics")
		}
	}()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var downstream interfaces.EventPublisher
	if cfg.NATSEnabled() {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Failed to close NATS connection")
			}
		}()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureDomainEventStream(natsClient, mapper); err != nil {
			log.WithError(err).Warn("Failed to ensure event stream, events will be published without persistence")
		}
		downstream = infrastructure.NewNATSEventPublisher(natsClient, mapper, metrics)
	} else {
		log.Info("NATS_SERVERS not set, committed events stay in process")
	}

	bus := infrastructure.NewLocalEventBus(downstream)
	uowFactory := infrastructure.NewUnitOfWorkFactory(repository.NewUnitOfWorkFactory(db), bus)
	retrier := infrastructure.NewConflictRetrier(millis(cfg.StoreRetryMaxElapsedMillis), metrics)
	economy := application.NewEconomy(uowFactory, repository.NewAccountRepository(db), retrier, metrics)

	crediter := application.NewRewardCrediter(economy, metrics, millis(cfg.RewardCreditTimeoutMillis), rewardWorkers, rewardQueueSize)
	sessions := application.NewSessionManager(economy, crediter, engine.RealClock{}, millis(cfg.SessionTickMillis), cfg.SessionEventQueueSize, metrics,
		application.SessionLimits{
			IdleTimeout:  millis(cfg.SessionIdleTimeoutMillis),
			MaxSessions:  cfg.SessionMaxTotal,
			MaxPerUser:   cfg.SessionMaxPerUser,
			MaxAnonymous: cfg.SessionMaxAnonymous,
		})
	sessions.Subscribe(bus)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(economy, sessions, requestTimeout).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("HTTP shutdown failed")
		}
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("Fireworks server listening")
	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down")
	sessions.Close()
	crediter.Close()
	bus.Wait()
	log.Info("Shutdown completed")
	return nil
}
