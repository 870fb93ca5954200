package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/sediba-fin/sediba-core/internal/config"
	"github.com/sediba-fin/sediba-core/internal/handler"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/middleware"
	"github.com/sediba-fin/sediba-core/internal/repository"
	"github.com/sediba-fin/sediba-core/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("sediba-api", cfg.LogLevel, cfg.AppEnv)

	pool, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := repository.NewDB(pool)
	customers := repository.NewCustomerRepository(pool)
	accounts := repository.NewAccountRepository(pool)
	transactions := repository.NewTransactionRepository(pool)
	tellers := repository.NewTellerRepository(pool)

	openingSvc := service.NewOpeningService(db, customers, accounts, cfg.DefaultBranchCode, cfg.TempPassword)
	accountSvc := service.NewAccountService(db, accounts)
	transactionSvc := service.NewTransactionService(db, accounts, transactions)
	interestSvc := service.NewInterestService(db, accounts, cfg.SavingsMonthlyRate, cfg.InvestmentMonthlyRate)
	customerSvc := service.NewCustomerService(customers, accounts)
	loginSvc := service.NewLoginService(tellers, customers, cfg.JWTSecret)

	authHandler := handler.NewAuthHandler(loginSvc)
	accountHandler := handler.NewAccountHandler(openingSvc, accountSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)
	customerHandler := handler.NewCustomerHandler(customerSvc)
	interestHandler := handler.NewInterestHandler(interestSvc)

	authed := middleware.Auth(cfg.JWTSecret)
	teller := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.TellerOnly(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("POST /api/v1/auth/teller/login", authHandler.TellerLogin)
	mux.HandleFunc("POST /api/v1/auth/customer/login", authHandler.CustomerLogin)

	mux.Handle("POST /api/v1/accounts", teller(accountHandler.Open))
	mux.Handle("POST /api/v1/customers/check-unique", teller(accountHandler.CheckUnique))
	mux.Handle("GET /api/v1/accounts/{number}", authed(http.HandlerFunc(accountHandler.Get)))
	mux.Handle("POST /api/v1/accounts/{number}/close", teller(accountHandler.Close))
	mux.Handle("POST /api/v1/accounts/{number}/deposits", teller(transactionHandler.Deposit))
	mux.Handle("POST /api/v1/accounts/{number}/withdrawals", teller(transactionHandler.Withdraw))
	mux.Handle("GET /api/v1/accounts/{number}/transactions", authed(http.HandlerFunc(transactionHandler.History)))
	mux.Handle("POST /api/v1/interest/run", teller(interestHandler.Run))

	mux.Handle("GET /api/v1/customers/{id}", authed(http.HandlerFunc(customerHandler.Get)))
	mux.Handle("PATCH /api/v1/customers/{id}", authed(http.HandlerFunc(customerHandler.UpdateProfile)))
	mux.Handle("POST /api/v1/customers/{id}/deactivate", teller(customerHandler.Deactivate))
	mux.Handle("GET /api/v1/customers/{id}/accounts", authed(http.HandlerFunc(customerHandler.Accounts)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
