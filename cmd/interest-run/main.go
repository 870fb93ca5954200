// interest-run applies one month of interest to every eligible account
// and exits. It is meant to be invoked by an external scheduler (cron or
// similar) on the first of the month.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/sediba-fin/sediba-core/internal/config"
	"github.com/sediba-fin/sediba-core/internal/logging"
	"github.com/sediba-fin/sediba-core/internal/repository"
	"github.com/sediba-fin/sediba-core/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("sediba-interest-run", cfg.LogLevel, cfg.AppEnv)

	pool, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		slog.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	db := repository.NewDB(pool)
	accounts := repository.NewAccountRepository(pool)
	interest := service.NewInterestService(db, accounts, cfg.SavingsMonthlyRate, cfg.InvestmentMonthlyRate)

	result, err := interest.Run(ctx)
	if err != nil {
		slog.Error("interest run failed", "error", err)
		os.Exit(1)
	}

	for number, amount := range result.Applied {
		fmt.Printf("%s\t%s\n", number, amount.StringFixed(2))
	}
	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "%s\t%v\n", f.AccountNumber, f.Err)
	}

	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
