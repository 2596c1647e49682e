package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"libraryhub/database"
	"libraryhub/internal/app"
	"libraryhub/internal/config"
	"libraryhub/internal/jobs"
	"libraryhub/internal/logging"
	"libraryhub/internal/microservices/http-api/handler"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/websocket"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg, os.Stdout)
	slog.SetDefault(logger)

	// 2. Connect to the database
	db, sqlDB, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := database.Migrate(db, logger); err != nil {
		logger.Error("database_migrate_failed", "error", err)
		// os.Exit skips deferred calls
		sqlDB.Close()
		os.Exit(1)
	}

	// redis is optional: without it job runs are not de-duplicated across processes
	rdb, err := jobs.DialRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis_unavailable", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	a := app.New(cfg, db, sqlDB, "pgx", repository.DialectPostgres, rdb, logger)
	a.Dispatcher.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var schedulers []*jobs.Scheduler
	if cfg.OverdueJobEnabled {
		schedulers = append(schedulers, jobs.NewScheduler("overdue_sweep", cfg.OverdueJobHour, a.Sweeper.Run, logger))
	}
	if cfg.ReminderJobEnabled {
		schedulers = append(schedulers, jobs.NewScheduler("due_reminders", cfg.ReminderJobHour, a.Reminders.Run, logger))
	}
	for _, s := range schedulers {
		s.Start(ctx)
	}

	// 3. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	registerRoutes(r, cfg, a, sqlDB)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_failed", "error", err)
	}
	for _, s := range schedulers {
		s.Stop()
	}
	// deliver what is already queued
	a.Dispatcher.Wait()
	logger.Info("shutdown_finished")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, a *app.App, sqlDB handler.Pinger) {
	svcs := a.Services
	authMW := middleware.AuthMiddleware(svcs.Auth)
	requireAdmin := middleware.RequireAdmin()
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)

	r.GET("/healthz", handler.Healthz(sqlDB))

	handler.NewAuthHandler(svcs.Auth, svcs.Accounts).RegisterRoutes(r.Group("/auth", limiter.Middleware()))

	reviews := handler.NewReviewHandler(svcs.Reviews)
	handler.NewBookHandler(svcs.Books, svcs.Reviews).RegisterRoutes(r.Group("/books"))

	genres := handler.NewGenreHandler(svcs.Genres)
	genres.RegisterRoutes(r.Group("/genres"), r.Group("/admin/genres", authMW, requireAdmin))

	authed := r.Group("", authMW)
	handler.NewCartHandler(svcs.Carts).RegisterRoutes(authed.Group("/cart"))
	handler.NewLoanHandler(svcs.Loans).RegisterRoutes(authed, requireAdmin)

	invoices := handler.NewInvoiceHandler(svcs.Invoices)
	invoices.RegisterRoutes(authed.Group("/invoices"), requireAdmin)
	transactions := handler.NewTransactionHandler(svcs.Transactions)
	transactions.RegisterRoutes(authed.Group("/transactions"))

	reviews.RegisterRoutes(authed.Group("/reviews"))
	notifications := authed.Group("/notifications")
	handler.NewNotificationHandler(svcs.Notifications).RegisterRoutes(notifications)
	notifications.GET("/ws", websocket.WSHandler(a.Hub))

	admin := handler.NewAdminHandler(svcs.Loans, svcs.Reports, a.Sweeper, invoices, transactions)
	admin.RegisterRoutes(authed.Group("/admin", requireAdmin))
}
