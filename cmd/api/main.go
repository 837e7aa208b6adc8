package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bloodlink/bloodlink-backend/api/routes"
	"github.com/bloodlink/bloodlink-backend/internal/admin"
	"github.com/bloodlink/bloodlink-backend/internal/auth"
	"github.com/bloodlink/bloodlink-backend/internal/chat"
	"github.com/bloodlink/bloodlink-backend/internal/donors"
	"github.com/bloodlink/bloodlink-backend/internal/geofence"
	"github.com/bloodlink/bloodlink-backend/internal/hospitals"
	"github.com/bloodlink/bloodlink-backend/internal/inventory"
	"github.com/bloodlink/bloodlink-backend/internal/matching"
	"github.com/bloodlink/bloodlink-backend/internal/pledges"
	"github.com/bloodlink/bloodlink-backend/internal/requests"
	"github.com/bloodlink/bloodlink-backend/internal/rewards"
	"github.com/bloodlink/bloodlink-backend/internal/users"
	"github.com/bloodlink/bloodlink-backend/pkg/auth/session"
	"github.com/bloodlink/bloodlink-backend/pkg/certificates"
	"github.com/bloodlink/bloodlink-backend/pkg/config"
	"github.com/bloodlink/bloodlink-backend/pkg/db"
	"github.com/bloodlink/bloodlink-backend/pkg/logger"
	"github.com/bloodlink/bloodlink-backend/pkg/metrics"
	"github.com/bloodlink/bloodlink-backend/pkg/migrate"
	"github.com/bloodlink/bloodlink-backend/pkg/realtime"
	"github.com/bloodlink/bloodlink-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
) (routes.Services, error) {
	userRepo := users.NewRepository(dbClient.DB())
	requestRepo := requests.NewRepository(dbClient.DB())
	pledgeRepo := pledges.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	chatRepo := chat.NewRepository(dbClient.DB())

	dispatcher := realtime.NewDispatcher(redisClient, logg)
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	matcher, err := matching.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	rewarder, err := rewards.NewService(rewards.ServiceParams{
		Certificates: certificates.NewPDFGenerator(cfg.Certificates.Dir, cfg.Certificates.PublicBasePath),
		Metrics:      workflowMetrics,
		Logger:       logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	requestService, err := requests.NewService(requests.ServiceParams{
		Repo:      requestRepo,
		Tx:        dbClient,
		Matcher:   matcher,
		Users:     userRepo,
		Donations: pledgeRepo,
		Notifier:  dispatcher,
		Rewarder:  rewarder,
		Metrics:   workflowMetrics,
		TTLConfig: cfg.Requests,
	})
	if err != nil {
		return routes.Services{}, err
	}

	pledgeService, err := pledges.NewService(pledges.ServiceParams{
		Repo:     pledgeRepo,
		Requests: requestRepo,
		Donors:   userRepo,
		Notifier: dispatcher,
		Metrics:  workflowMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	donorService, err := donors.NewService(donors.ServiceParams{
		Users:     userRepo,
		Requests:  requestRepo,
		Donations: pledgeRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}

	geofenceService, err := geofence.NewService(geofence.ServiceParams{
		Users:     userRepo,
		Donations: pledgeRepo,
		Notifier:  dispatcher,
		Metrics:   workflowMetrics,
		Config:    cfg.Geofence,
	})
	if err != nil {
		return routes.Services{}, err
	}

	hospitalService, err := hospitals.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:      inventoryRepo,
		Tx:        dbClient,
		Hospitals: userRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}

	chatService, err := chat.NewService(chat.ServiceParams{
		Repo:     chatRepo,
		Requests: requestRepo,
		Users:    userRepo,
		Pledges:  pledgeRepo,
		Notifier: dispatcher,
	})
	if err != nil {
		return routes.Services{}, err
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Users:    userRepo,
		Requests: requestRepo,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		Register:      registerService,
		AdminRegister: adminRegisterService,
		Requests:      requestService,
		Pledges:       pledgeService,
		Donors:        donorService,
		Geofence:      geofenceService,
		Hospitals:     hospitalService,
		Inventory:     inventoryService,
		Chat:          chatService,
		Admin:         adminService,
	}, nil
}
