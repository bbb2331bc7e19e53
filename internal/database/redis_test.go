package database

import (
	"context"
	"testing"
	"time"

	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisConnection(t *testing.T) {
	mr, _ := testutil.NewMiniRedis(t)
	logger, hook := test.NewNullLogger()

	rc, err := NewRedisConnection(context.Background(), testutil.MiniRedisConfig(t, mr), logger)
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, mr.Addr(), entry.Data["addr"])

	assert.NoError(t, rc.HealthCheck(context.Background()))

	mr.SetError("LOADING")
	assert.Error(t, rc.HealthCheck(context.Background()))
	mr.SetError("")

	rc.Close()
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "Redis connection closed", hook.LastEntry().Message)
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	mr, _ := testutil.NewMiniRedis(t)
	cfg := testutil.MiniRedisConfig(t, mr)
	mr.Close()

	logger, _ := test.NewNullLogger()
	_, err := NewRedisConnection(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestNewRedisConnection_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	logger, _ := test.NewNullLogger()
	_, err := NewRedisConnection(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1}, logger)
	assert.Error(t, err)
}

func TestRedisClient_Nil(t *testing.T) {
	var rc *RedisClient
	assert.EqualError(t, rc.HealthCheck(context.Background()), "redis not configured")
	assert.NotPanics(t, rc.Close)
}

func TestPostgresDB_Nil(t *testing.T) {
	var db *PostgresDB
	assert.EqualError(t, db.HealthCheck(context.Background()), "database not configured")
	assert.NotPanics(t, db.Close)
}

func TestNewPostgresConnection_BadDSN(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewPostgresConnection(context.Background(), &config.DatabaseConfig{DatabaseURL: "postgres://%zz"}, logger)
	assert.ErrorContains(t, err, "failed to parse database config")
}
