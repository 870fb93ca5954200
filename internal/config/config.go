package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Monthly interest rates per account kind. These magnitudes come
	// straight from the product rules (5% and 0.05% per month).
	SavingsMonthlyRate    float64 `env:"SAVINGS_MONTHLY_RATE" envDefault:"0.0005"`
	InvestmentMonthlyRate float64 `env:"INVESTMENT_MONTHLY_RATE" envDefault:"0.05"`

	DefaultBranchCode string `env:"DEFAULT_BRANCH_CODE" envDefault:"B001"`
	TempPassword      string `env:"ONBOARDING_TEMP_PASSWORD" envDefault:"Welcome123"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
