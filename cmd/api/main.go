package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

// multipart overhead on top of the largest accepted photo
const bodyLimitSlack = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if _, err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	files, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicPrefix, int64(cfg.Upload.MaxBytes))
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	actionRepo := repository.NewTicketActionRepository(pool)
	coAssignmentRepo := repository.NewCoAssignmentRepository(pool)
	problemTypeRepo := repository.NewProblemTypeRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	queue := events.NewRedisQueue(redis.Client, cfg.Redis.EventQueueKey, dispatcher, logger)

	var transports []notify.Transport
	if cfg.Notification.PushEnabled() {
		transports = append(transports, notify.NewWebPush(cfg.Notification))
	} else {
		logger.Warn("VAPID keys not set; browser push disabled")
	}
	if cfg.Notification.WebhookURL != "" {
		transports = append(transports, notify.NewWebhook(cfg.Notification.WebhookURL))
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost)
	problemTypeService := service.NewProblemTypeService(problemTypeRepo)
	activityService := service.NewActivityService(activityRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		ActionRepo:       actionRepo,
		CoAssignmentRepo: coAssignmentRepo,
		UserRepo:         userRepo,
		ProblemTypeRepo:  problemTypeRepo,
		Files:            files,
		Publisher:        queue,
		Logger:           logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Transports:       transports,
		Logger:           logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo:   reportRepo,
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		UserRepo:     userRepo,
		Cache:        redis,
		CacheTTL:     cfg.Redis.DashboardTTL(),
		Logger:       logger,
	})

	notificationService.RegisterHandlers(dispatcher)
	reportService.RegisterHandlers(dispatcher)

	notificationWorker := worker.NewNotificationWorker(queue, cfg.Notification.WorkerCount, logger, metrics)
	notificationWorker.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Upload.MaxBytes + bodyLimitSlack,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:          logger,
		Metrics:         metrics,
		Timeout:         cfg.App.RequestTimeout(),
		CORS:            cfg.CORS,
		ExposeInternals: cfg.App.IsDevelopment(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(authService, userService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		ProblemTypes:   handlers.NewProblemTypesHandler(problemTypeService),
		Activities:     handlers.NewActivitiesHandler(activityService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
		UploadDir:      cfg.Upload.Dir,
		UploadPrefix:   cfg.Upload.PublicPrefix,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	notificationWorker.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
