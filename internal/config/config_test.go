package config

import (
	"testing"
	"time"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "warn", cfg.Logging.CLILevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "student.domstable", cfg.Database.RatesTable)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Dashboard.TopK)
	assert.Equal(t, 60*time.Second, cfg.Redis.ReportTTL)
	assert.Equal(t, 10*time.Second, cfg.PriceAPI.Timeout)
	assert.Equal(t, 5, cfg.PriceAPI.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.PriceAPI.BreakerCooldown)
	assert.Equal(t, "https://pro-api.coinmarketcap.com", cfg.PriceAPI.BaseURL)
	assert.Equal(t, DefaultAssets(), cfg.Dashboard.Assets)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("PRICE_API_KEY", "cmc-test-key")
	t.Setenv("DATABASE_PASSWORD", "s3cret")
	t.Setenv("DASHBOARD_TOP_K", "3")
	t.Setenv("LOGGING_CLI_LEVEL", "info")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "cmc-test-key", cfg.PriceAPI.APIKey)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 3, cfg.Dashboard.TopK)
	assert.Equal(t, "info", cfg.Logging.CLILevel)
}

func TestLoad_ProductionRequiresAPIKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PRICE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRICE_API_KEY")
}

func TestDecode_CustomAssets(t *testing.T) {
	v := newTestViper()
	v.Set("dashboard.assets", []map[string]interface{}{
		{"id": "SOL", "name": "Solana", "logo_url": "https://example.com/sol.png"},
	})

	cfg, err := decode(v)
	require.NoError(t, err)
	require.Len(t, cfg.Dashboard.Assets, 1)
	assert.Equal(t, models.Asset{ID: "SOL", Name: "Solana", LogoURL: "https://example.com/sol.png"}, cfg.Dashboard.Assets[0])
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "development",
			Database:    DatabaseConfig{RatesTable: "student.domstable"},
			Dashboard:   DashboardConfig{TopK: 5, Assets: DefaultAssets()},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero top k", func(c *Config) { c.Dashboard.TopK = 0 }, "top_k"},
		{"negative moving average", func(c *Config) { c.Dashboard.MovingAveragePeriod = -1 }, "moving_average_period"},
		{"no assets", func(c *Config) { c.Dashboard.Assets = nil }, "assets"},
		{"blank asset id", func(c *Config) { c.Dashboard.Assets = []models.Asset{{Name: "x"}} }, "id"},
		{"duplicate asset", func(c *Config) {
			c.Dashboard.Assets = []models.Asset{{ID: "BTC"}, {ID: "btc"}}
		}, "duplicate"},
		{"injected table", func(c *Config) { c.Database.RatesTable = "rates; DROP TABLE x" }, "rates_table"},
		{"missing api key", func(c *Config) { c.Environment = "staging" }, "PRICE_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDashboardConfig_Asset(t *testing.T) {
	d := DashboardConfig{Assets: DefaultAssets()}

	a, ok := d.Asset("eth")
	assert.True(t, ok)
	assert.Equal(t, "Ethereum", a.Name)

	_, ok = d.Asset("XRP")
	assert.False(t, ok)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "rates", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=rates sslmode=require", c.DSN())

	c.DatabaseURL = "postgres://u:p@db/rates"
	assert.Equal(t, "postgres://u:p@db/rates", c.DSN())
}
