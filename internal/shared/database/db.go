package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/flowgen-ai/gateway/internal/shared/models"
)

type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordGeneration writes one generation to the history table.
func (db *DB) RecordGeneration(ctx context.Context, rec *models.GenerationRecord) error {
	query := `
		INSERT INTO generation_history (
			generation_id, requester, prompt, kind, provider, model, entitlement,
			package_id, credits_used, result_url, influenced, latency_ms,
			status_code, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := db.conn.ExecContext(ctx,
		query,
		rec.GenerationID,
		rec.Requester,
		rec.Prompt,
		rec.Kind,
		rec.Provider,
		rec.Model,
		rec.Entitlement,
		rec.PackageID,
		rec.CreditsUsed,
		rec.ResultURL,
		rec.Influenced,
		rec.LatencyMs,
		rec.StatusCode,
		rec.ErrorMessage,
	)

	return err
}
