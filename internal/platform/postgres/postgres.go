// Package postgres opens the database pool used by the store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

const (
	maxConnectAttempts = 12
	connectRetryDelay  = 5 * time.Second
)

// Open connects to the database, retrying on a fixed delay until the
// server accepts connections or ctx is cancelled. Databases routinely
// come up after the service in containerized deployments.
func Open(ctx context.Context, url string, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if lastErr = db.PingContext(ctx); lastErr == nil {
			return db, nil
		}
		log.Warn("postgres not ready", "attempt", attempt, "err", lastErr)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping postgres: %w", lastErr)
}
