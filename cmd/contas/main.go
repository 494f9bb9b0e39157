package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/auth"
	"contas/internal/cache"
	"contas/internal/cli"
	apphttp "contas/internal/http"
	applog "contas/internal/log"
	"contas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.Level(), applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	issuer := auth.NewIssuer(cfg.AppSecret, cfg.TokenTTL)
	users := services.NewAuthService(repo, issuer)
	ledger := services.NewLedgerService(repo)
	debts := services.NewDebtService(repo)
	reports := services.NewReportService(repo, cfg.ReportCacheTTL)

	ledger.OnChange(reports.Invalidate)
	debts.OnChange(reports.Invalidate)

	if cfg.AdminPassword != "" {
		if _, err := users.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("Failed to seed admin user", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("ADMIN_PASSWORD not set, skipping admin seed")
	}

	// Writes keep working without a broker; the worker's sweep mirrors
	// whatever was not announced.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		ledger.SetPublisher(amqpClient)
		debts.SetPublisher(amqpClient)
		users.SetPublisher(amqpClient)
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
	}

	caches := cache.NewManager()
	for _, c := range reports.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:  ledger,
		Debts:   debts,
		Reports: reports,
		Users:   users,
		Tokens:  issuer,
		DB:      repo,
		Logger:  logger.WithComponent(applog.ComponentHTTP),
	}, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting contas server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
