package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/irfndi/ratepulse/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PostgresDB owns the read-only pool the rate repository queries.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

// NewPostgresConnection opens a pool from cfg and verifies it with a ping
// bounded by ctx.
func NewPostgresConnection(ctx context.Context, cfg *config.DatabaseConfig, logger logrus.FieldLogger) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":      poolConfig.ConnConfig.Host,
		"database":  poolConfig.ConnConfig.Database,
		"max_conns": poolConfig.MaxConns,
		"table":     cfg.RatesTable,
	}).Info("Connected to PostgreSQL")

	return &PostgresDB{Pool: pool, logger: logger}, nil
}

func (db *PostgresDB) Close() {
	if db == nil || db.Pool == nil {
		return
	}
	db.Pool.Close()
	db.logger.Info("PostgreSQL connection closed")
}

func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return errors.New("database not configured")
	}
	return db.Pool.Ping(ctx)
}
