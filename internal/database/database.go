// Package database opens the self-hosted Postgres schema used by the migrate command.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
)

type Config struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// PoolConfig parses the connection URL and applies the pool limits of cfg.
func PoolConfig(cfg Config) (*pgxpool.Config, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("database url is not configured")
	}

	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return pc, nil
}

type DB struct {
	Pool *pgxpool.Pool
	Gorm *gorm.DB
}

// Open connects to Postgres and wraps the pool with gorm.
func Open(ctx context.Context, cfg Config, l *zap.Logger) (*DB, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	l = logger.WithFields(l).Named("database")
	l.Info("database connection pool configured",
		zap.Int32("max_conns", pc.MaxConns),
		zap.Duration("conn_max_lifetime", pc.MaxConnLifetime),
	)

	g, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: newGormLogger(l),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("opening gorm: %w", err)
	}

	return &DB{Pool: pool, Gorm: g}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Tables returns the schema models in dependency order.
func Tables() []any {
	return []any{
		&models.Profile{},
		&models.Municipality{},
		&models.Skill{},
		&models.UserSkill{},
		&models.Project{},
		&models.ProjectRole{},
		&models.Participant{},
		&models.Certificate{},
	}
}

func (db *DB) Migrate(ctx context.Context) error {
	if err := db.Gorm.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("enabling pgcrypto: %w", err)
	}
	if err := db.Gorm.WithContext(ctx).AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
