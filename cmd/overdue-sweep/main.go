package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"libraryhub/database"
	"libraryhub/internal/app"
	"libraryhub/internal/config"
	"libraryhub/internal/jobs"
	"libraryhub/internal/logging"
	"libraryhub/internal/microservices/http-api/repository"

	jsoniter "github.com/json-iterator/go"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup always happens first.
func run() int {
	once := flag.Bool("once", false, "run a single sweep and exit")
	reminders := flag.Bool("reminders", false, "also send due-date reminders")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("could not load config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid config: %v", err)
		return 1
	}
	logger := logging.New(cfg, os.Stdout)
	slog.SetDefault(logger)

	db, sqlDB, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		return 1
	}
	defer sqlDB.Close()

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
	defer a.Dispatcher.Wait()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		res, err := a.Sweeper.RunOnce(ctx)
		if err != nil {
			logger.Error("overdue_sweep_failed", "error", err)
			return 1
		}
		if err := writeSummary(os.Stdout, res); err != nil {
			logger.Error("sweep_summary_failed", "error", err)
			return 1
		}

		if *reminders {
			if _, err := a.Reminders.RunOnce(ctx); err != nil {
				logger.Error("reminders_failed", "error", err)
				return 1
			}
		}
		return 0
	}

	sweep := jobs.NewScheduler("overdue_sweep", cfg.OverdueJobHour, a.Sweeper.Run, logger)
	sweep.Start(ctx)
	if *reminders {
		rem := jobs.NewScheduler("due_reminders", cfg.ReminderJobHour, a.Reminders.Run, logger)
		rem.Start(ctx)
		defer rem.Stop()
	}

	<-ctx.Done()
	sweep.Stop()
	return 0
}

// writeSummary prints v as indented JSON on its own line.
func writeSummary(w io.Writer, v any) error {
	out, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
