package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"JWT_SECRET"`
}

type SchedulerConfig struct {
	OverdueCron string `mapstructure:"SCHEDULER_OVERDUE_CRON"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	DefaultInterestRate   string `mapstructure:"DEFAULT_INTEREST_RATE"`
	AccountNumberAttempts int    `mapstructure:"ACCOUNT_NUMBER_ATTEMPTS"`
	ScoreCacheTTL         string `mapstructure:"SCORE_CACHE_TTL"`
	LargeLoanThreshold    string `mapstructure:"LARGE_LOAN_THRESHOLD"`
	LargeLoanMaxMonths    int    `mapstructure:"LARGE_LOAN_MAX_MONTHS"`
	SmallLoanThreshold    string `mapstructure:"SMALL_LOAN_THRESHOLD"`
	SmallLoanMaxMonths    int    `mapstructure:"SMALL_LOAN_MAX_MONTHS"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DEFAULT_INTEREST_RATE", "15.0")
	viper.SetDefault("ACCOUNT_NUMBER_ATTEMPTS", 5)
	viper.SetDefault("SCORE_CACHE_TTL", "10m")
	viper.SetDefault("LARGE_LOAN_THRESHOLD", "50000")
	viper.SetDefault("LARGE_LOAN_MAX_MONTHS", 60)
	viper.SetDefault("SMALL_LOAN_THRESHOLD", "10000")
	viper.SetDefault("SMALL_LOAN_MAX_MONTHS", 36)
	viper.SetDefault("SCHEDULER_OVERDUE_CRON", "0 0 0 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Africa/Lagos")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.AccountNumberAttempts <= 0 {
		return fmt.Errorf("ACCOUNT_NUMBER_ATTEMPTS must be greater than 0")
	}

	if _, err := decimal.NewFromString(c.Business.DefaultInterestRate); err != nil {
		return fmt.Errorf("DEFAULT_INTEREST_RATE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.LargeLoanThreshold); err != nil {
		return fmt.Errorf("LARGE_LOAN_THRESHOLD must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.SmallLoanThreshold); err != nil {
		return fmt.Errorf("SMALL_LOAN_THRESHOLD must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.ScoreCacheTTL); err != nil {
		return fmt.Errorf("SCORE_CACHE_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDefaultInterestRate returns the default annual interest rate in percent
func (c *Config) GetDefaultInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultInterestRate)
	return rate
}

// GetLargeLoanThreshold returns the amount above which the tighter duration cap applies
func (c *Config) GetLargeLoanThreshold() decimal.Decimal {
	v, _ := decimal.NewFromString(c.Business.LargeLoanThreshold)
	return v
}

// GetSmallLoanThreshold returns the amount at or below which the short duration cap applies
func (c *Config) GetSmallLoanThreshold() decimal.Decimal {
	v, _ := decimal.NewFromString(c.Business.SmallLoanThreshold)
	return v
}

// GetScoreCacheTTL returns how long credit score breakdowns stay cached
func (c *Config) GetScoreCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.ScoreCacheTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
