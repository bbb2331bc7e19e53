// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/redis/go-redis/v9"
)

// GetTestRedisOptions returns Redis options for tests against a real server.
// REDIS_TEST_ADDR overrides the local default.
func GetTestRedisOptions() *redis.Options {
	redisAddr := os.Getenv("REDIS_TEST_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // fallback for local development
	}

	return &redis.Options{
		Addr: redisAddr,
		DB:   1, // Use test database
	}
}

// NewMiniRedis starts an in-memory Redis server for the duration of the test
// and returns it with a connected client.
func NewMiniRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// MiniRedisConfig points a RedisConfig at a miniredis server.
func MiniRedisConfig(t testing.TB, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("invalid miniredis port %q: %v", mr.Port(), err)
	}
	return config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}
