package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voiceops/teamsadmin/internal/admin_api/middleware"
	httptransport "github.com/voiceops/teamsadmin/internal/admin_api/transport/http"
	"github.com/voiceops/teamsadmin/internal/integrations/connectwise"
	"github.com/voiceops/teamsadmin/internal/integrations/teams"
	"github.com/voiceops/teamsadmin/internal/integrations/threecx"
	invapp "github.com/voiceops/teamsadmin/internal/inventory_service/app"
	invrepo "github.com/voiceops/teamsadmin/internal/inventory_service/repository/postgres"
	"github.com/voiceops/teamsadmin/internal/platform/cache"
	"github.com/voiceops/teamsadmin/internal/platform/config"
	"github.com/voiceops/teamsadmin/internal/platform/database"
	"github.com/voiceops/teamsadmin/internal/platform/logger"
	"github.com/voiceops/teamsadmin/internal/platform/messagebroker"
	"github.com/voiceops/teamsadmin/internal/platform/secrets"
	provapp "github.com/voiceops/teamsadmin/internal/provisioning_service/app"
	provrepo "github.com/voiceops/teamsadmin/internal/provisioning_service/repository/postgres"
	syncapp "github.com/voiceops/teamsadmin/internal/sync_service/app"
	syncrepo "github.com/voiceops/teamsadmin/internal/sync_service/repository/postgres"
	tenantapp "github.com/voiceops/teamsadmin/internal/tenant_service/app"
	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
	tenantrepo "github.com/voiceops/teamsadmin/internal/tenant_service/repository/postgres"
	userapp "github.com/voiceops/teamsadmin/internal/user_service/app"
	userrepo "github.com/voiceops/teamsadmin/internal/user_service/repository/postgres"
)

const serviceName = "admin_api_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("admin API service starting", "port", cfg.AdminAPIPort)

	ctx := context.Background()

	if err := database.RunMigrations(cfg.MigrationsPath, cfg.PostgresDSN, appLogger); err != nil {
		appLogger.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, appLogger)
	if err != nil {
		appLogger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

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

	// Repositories.
	tenantRepo := tenantrepo.NewPgTenantRepository(dbPool, appLogger)
	credRepo := tenantrepo.NewPgCredentialRepository(dbPool, appLogger)
	numberRepo := invrepo.NewPgPhoneNumberRepository(dbPool, appLogger)
	syncRunRepo := syncrepo.NewPgSyncRunRepository(dbPool, appLogger)
	profileRepo := provrepo.NewPgProfileRepository(dbPool, appLogger)
	batchRepo := provrepo.NewPgAssignmentBatchRepository(dbPool, appLogger)
	adminUserRepo := userrepo.NewPgAdminUserRepository(dbPool, appLogger)

	// The tenant application and the integration clients reference each
	// other: clients resolve credentials through the tenant app, the tenant
	// app tests credentials through the clients. The shared testers map is
	// filled in once the clients exist.
	testers := make(map[tenantdomain.CredentialKind]tenantapp.CredentialTester)
	tenantApp := tenantapp.NewApplication(tenantRepo, credRepo, box, testers, appLogger)

	bridgeClient := teams.NewBridgeClient(cfg.PSBridgeBaseURL, tenantApp, appLogger)
	cwClient := connectwise.NewClient(cfg.ConnectWiseBaseURL, appLogger)
	threecxClient := threecx.NewClient(appLogger)
	testers[tenantdomain.CredentialPowerShell] = bridgeClient
	testers[tenantdomain.CredentialConnectWise] = cwClient
	testers[tenantdomain.CredentialThreeCX] = threecxClient

	directory := teams.NewCachedDirectory(bridgeClient, redisClient, cfg.PolicyCacheTTL, appLogger)

	// Applications.
	inventoryApp := invapp.NewApplication(numberRepo, appLogger)
	orchestrator := syncapp.NewOrchestrator(directory, inventoryApp, syncRunRepo, natsClient, cfg.RemoteCallTimeout, appLogger)
	executor := provapp.NewExecutor(directory, batchRepo, natsClient, cfg.RemoteCallTimeout, appLogger)
	profileApp := provapp.NewProfileApplication(profileRepo, appLogger)
	authService := userapp.NewAuthService(adminUserRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour, appLogger)

	// HTTP transport.
	validate := validator.New()
	authHandler := httptransport.NewAuthHandler(authService, appLogger, validate)
	tenantHandler := httptransport.NewTenantHandler(tenantApp, appLogger, validate)
	inventoryHandler := httptransport.NewInventoryHandler(inventoryApp, appLogger, validate)
	syncHandler := httptransport.NewSyncHandler(orchestrator, appLogger, validate)
	assignmentHandler := httptransport.NewAssignmentHandler(executor, appLogger, validate)
	profileHandler := httptransport.NewProfileHandler(profileApp, appLogger, validate)
	directoryHandler := httptransport.NewDirectoryHandler(directory, bridgeClient, appLogger, validate)

	authMW := middleware.AuthMiddleware(authService, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(2 * time.Minute))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler.RegisterRoutes(r)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMW)
		tenantHandler.RegisterRoutes(api)
		inventoryHandler.RegisterRoutes(api)
		syncHandler.RegisterRoutes(api)
		assignmentHandler.RegisterRoutes(api)
		profileHandler.RegisterRoutes(api)
		directoryHandler.RegisterRoutes(api)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.AdminAPIPort),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		appLogger.Info("admin API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("admin API service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("admin API service shut down")
}
