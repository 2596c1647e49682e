// Package app builds the object graph shared by the API server and the
// standalone sweep runner.
package app

import (
	"database/sql"
	"log/slog"

	"libraryhub/internal/config"
	"libraryhub/internal/jobs"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/http-api/service"
	"libraryhub/internal/microservices/websocket"
	"libraryhub/internal/notify"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const notifyWorkers = 4

type Repositories struct {
	Users         repository.UserRepository
	RefreshTokens repository.RefreshTokenRepository
	UserTokens    repository.UserTokenRepository
	Genres        repository.GenreRepository
	Books         repository.BookRepository
	Inventory     repository.InventoryRepository
	Carts         repository.CartRepository
	Loans         repository.LoanRepository
	Invoices      repository.InvoiceRepository
	Transactions  repository.TransactionRepository
	Reviews       repository.ReviewRepository
	Notifications repository.NotificationRepository
	Reports       repository.ReportRepository
}

type Services struct {
	Auth          service.AuthService
	Accounts      service.AccountService
	Genres        service.GenreService
	Books         service.BookService
	Carts         service.CartService
	Loans         service.LoanService
	Invoices      service.InvoiceService
	Transactions  service.TransactionService
	Reviews       service.ReviewService
	Notifications service.NotificationService
	Reports       service.ReportService
}

// App is everything main needs to serve requests and run jobs.
type App struct {
	Repos      Repositories
	Services   Services
	Dispatcher *notify.Dispatcher
	Hub        *websocket.Hub
	Sweeper    *jobs.OverdueSweeper
	Reminders  *jobs.ReminderJob
}

// New wires repositories, services, notifications and jobs. rdb may be nil.
// reportDialect is repository.DialectPostgres in production.
func New(cfg *config.Config, db *gorm.DB, sqlDB *sql.DB, driverName, reportDialect string, rdb *redis.Client, logger *slog.Logger) *App {
	repos := Repositories{
		Users:         repository.NewUserRepository(db),
		RefreshTokens: repository.NewRefreshTokenRepository(db),
		UserTokens:    repository.NewUserTokenRepository(db),
		Genres:        repository.NewGenreRepository(db),
		Books:         repository.NewBookRepository(db),
		Inventory:     repository.NewInventoryRepository(db),
		Carts:         repository.NewCartRepository(db),
		Loans:         repository.NewLoanRepository(db),
		Invoices:      repository.NewInvoiceRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Reviews:       repository.NewReviewRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Reports:       repository.NewReportRepository(sqlx.NewDb(sqlDB, driverName), reportDialect),
	}

	hub := websocket.NewHub(logger)
	senders := []notify.Sender{notify.NewInAppSender(repos.Notifications, logger), hub}
	if cfg.NotifyWebhookURL != "" {
		senders = append(senders, notify.NewWebhookSender(cfg.NotifyWebhookURL, repos.Users, logger))
	}
	dispatcher := notify.NewDispatcher(notify.NewFanout(senders...), notifyWorkers, logger)

	// account links carry secrets, so they skip the inbox and the live stream
	var accountSender notify.Sender
	if cfg.NotifyWebhookURL != "" {
		accountSender = notify.NewWebhookSender(cfg.NotifyWebhookURL, repos.Users, logger)
	} else {
		logger.Warn("account_links_logged", "reason", "NOTIFY_WEBHOOK_URL not set")
		accountSender = notify.NewLogSender(logger)
	}

	tx := repository.NewTransactor(db, cfg.DBTxTimeout)
	ledger := service.NewInventoryLedger(repos.Inventory)
	fees := service.FeePolicy{PerDayVND: cfg.FeePerDayVND}
	invoices := service.NewInvoiceService(tx, repos.Invoices, repos.Transactions, fees, dispatcher, logger)
	tokens := service.NewPickupTokenSigner(cfg.PickupSecret(), cfg.PickupTokenTTL)
	loans := service.NewLoanService(tx, repos.Loans, repos.Carts, repos.Invoices, ledger, invoices, tokens, dispatcher,
		service.LoanPolicy{
			LoanDays:      cfg.LoanDays,
			RenewDays:     cfg.RenewDays,
			MaxRenew:      cfg.MaxRenew,
			PickupBaseURL: cfg.AppBaseURL,
		}, logger)

	accounts := service.NewAccountService(tx, repos.Users, repos.UserTokens, repos.RefreshTokens, accountSender,
		service.AccountLinks{
			BaseURL:       cfg.AppBaseURL,
			ActivationTTL: cfg.ActivationTokenTTL,
			ResetTTL:      cfg.ResetTokenTTL,
		}, logger)

	svcs := Services{
		Auth:          service.NewAuthService(repos.Users, repos.RefreshTokens, accounts, cfg),
		Accounts:      accounts,
		Genres:        service.NewGenreService(repos.Genres),
		Books:         service.NewBookService(repos.Books),
		Carts:         service.NewCartService(repos.Carts, repos.Books, repos.Inventory),
		Loans:         loans,
		Invoices:      invoices,
		Transactions:  service.NewTransactionService(tx, repos.Transactions, repos.Invoices, logger),
		Reviews:       service.NewReviewService(repos.Reviews, repos.Books, repos.Loans),
		Notifications: service.NewNotificationService(repos.Notifications),
		Reports:       service.NewReportService(repos.Reports),
	}

	locker := jobs.NewRedisLocker(rdb)
	return &App{
		Repos:      repos,
		Services:   svcs,
		Dispatcher: dispatcher,
		Hub:        hub,
		Sweeper:    jobs.NewOverdueSweeper(repos.Loans, loans, locker, logger),
		Reminders:  jobs.NewReminderJob(repos.Loans, dispatcher, locker, cfg.ReminderDueSoonDays, logger),
	}
}
