package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/recipebox/apiserver/config"
	"go.uber.org/zap"
)

const (
	defaultDBDriver     = "postgres"
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// DSN builds a postgres connection URL from the database settings.
func DSN(cfg config.DatabaseConfig) string {
	sslmode := "disable"
	if cfg.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.DBName,
	}

	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()

	return u.String()
}

// Open connects to postgres, applies pool settings and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(defaultDBDriver, DSN(cfg))
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// WaitForDB polls the database until it accepts connections or ctx is done.
func WaitForDB(ctx context.Context, cfg config.DatabaseConfig, interval time.Duration, logger *zap.Logger) error {
	db, err := sql.Open(defaultDBDriver, DSN(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			logger.Info("database available")
			return nil
		}
		logger.Info("database unavailable, waiting", zap.Duration("interval", interval), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
