package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voiceops/teamsadmin/internal/integrations/connectwise"
	"github.com/voiceops/teamsadmin/internal/platform/config"
	"github.com/voiceops/teamsadmin/internal/platform/database"
	"github.com/voiceops/teamsadmin/internal/platform/logger"
	"github.com/voiceops/teamsadmin/internal/platform/messagebroker"
	"github.com/voiceops/teamsadmin/internal/platform/secrets"
	tenantapp "github.com/voiceops/teamsadmin/internal/tenant_service/app"
	tenantrepo "github.com/voiceops/teamsadmin/internal/tenant_service/repository/postgres"
	ticketingapp "github.com/voiceops/teamsadmin/internal/ticketing_service/app"
)

const serviceName = "ticketing_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("ticketing worker starting")

	ctx := context.Background()

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	box, err := secrets.NewBox(cfg.CredentialSealKey)
	if err != nil {
		appLogger.Error("invalid credential seal key", "error", err)
		os.Exit(1)
	}

	// The worker only reads credentials; it never tests them, so the
	// testers map stays empty.
	tenantRepo := tenantrepo.NewPgTenantRepository(dbPool, appLogger)
	credRepo := tenantrepo.NewPgCredentialRepository(dbPool, appLogger)
	tenantApp := tenantapp.NewApplication(tenantRepo, credRepo, box, nil, appLogger)

	cwClient := connectwise.NewClient(cfg.ConnectWiseBaseURL, appLogger)
	worker := ticketingapp.NewWorker(cwClient, tenantApp, appLogger)
	if err := worker.Start(natsClient); err != nil {
		appLogger.Error("failed to start ticketing worker", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("ticketing worker shutting down")
}
