package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	PriceAPI    PriceAPIConfig  `mapstructure:"price_api"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	// RatesTable is the (optionally schema-qualified) table holding
	// time_of_scrape, rate and asset_id_base columns.
	RatesTable string `mapstructure:"rates_table"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

type PriceAPIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key" json:"-" yaml:"-"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`

	// Consecutive failures before the breaker stops calling the API, and
	// how long it stays open.
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

type DashboardConfig struct {
	TopK                int            `mapstructure:"top_k"`
	MovingAveragePeriod int            `mapstructure:"moving_average_period"`
	Assets              []models.Asset `mapstructure:"assets"`
}

type LoggingConfig struct {
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	// CLILevel replaces log_level for ratectl, whose stdout carries tables.
	CLILevel string `mapstructure:"cli_level"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Exporter     string `mapstructure:"exporter"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DefaultAssets are the instruments offered when no asset list is configured.
func DefaultAssets() []models.Asset {
	return []models.Asset{
		{ID: "BTC", Name: "Bitcoin", LogoURL: "https://upload.wikimedia.org/wikipedia/commons/4/46/Bitcoin.svg"},
		{ID: "ETH", Name: "Ethereum", LogoURL: "https://upload.wikimedia.org/wikipedia/commons/0/05/Ethereum_logo_2014.svg"},
		{ID: "DOGE", Name: "Dogecoin", LogoURL: "https://upload.wikimedia.org/wikipedia/en/d/d0/Dogecoin_Logo.png"},
	}
}

// Load reads configuration from config.yaml, a .env file and the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("price_api.api_key", "PRICE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind PRICE_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DATABASE_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	if len(config.Dashboard.Assets) == 0 {
		config.Dashboard.Assets = DefaultAssets()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.Dashboard.TopK < 1 {
		return fmt.Errorf("dashboard.top_k must be at least 1, got %d", c.Dashboard.TopK)
	}
	if c.Dashboard.MovingAveragePeriod < 0 {
		return fmt.Errorf("dashboard.moving_average_period must not be negative, got %d", c.Dashboard.MovingAveragePeriod)
	}
	if len(c.Dashboard.Assets) == 0 {
		return errors.New("dashboard.assets must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Dashboard.Assets))
	for _, a := range c.Dashboard.Assets {
		id := strings.ToUpper(strings.TrimSpace(a.ID))
		if id == "" {
			return errors.New("dashboard.assets entries require an id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate asset id %q", id)
		}
		seen[id] = struct{}{}
	}

	if !tableNamePattern.MatchString(c.Database.RatesTable) {
		return fmt.Errorf("invalid database.rates_table %q", c.Database.RatesTable)
	}

	if c.Environment != "development" && c.PriceAPI.APIKey == "" {
		return errors.New("PRICE_API_KEY environment variable is required in non-development environments")
	}
	return nil
}

// Asset looks up a configured asset by id, case-insensitively.
func (c *DashboardConfig) Asset(id string) (models.Asset, bool) {
	for _, a := range c.Assets {
		if strings.EqualFold(a.ID, id) {
			return a, true
		}
	}
	return models.Asset{}, false
}

// DSN returns the connection string for the database.
func (c *DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.rates_table", "student.domstable")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.report_ttl", "60s")

	// Price API
	v.SetDefault("price_api.base_url", "https://pro-api.coinmarketcap.com")
	v.SetDefault("price_api.api_key", "")
	v.SetDefault("price_api.timeout", "10s")
	v.SetDefault("price_api.retry_count", 2)
	v.SetDefault("price_api.breaker_threshold", 5)
	v.SetDefault("price_api.breaker_cooldown", "30s")

	// Dashboard
	v.SetDefault("dashboard.top_k", 5)
	v.SetDefault("dashboard.moving_average_period", 0)

	// Logging
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.cli_level", "warn")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "ratepulse")
}
