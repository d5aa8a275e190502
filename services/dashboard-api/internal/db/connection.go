package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgxpool.Pool the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var Pool *pgxpool.Pool

func Init(ctx context.Context, connString string) error {
	if connString == "" {
		return fmt.Errorf("database.url not configured")
	}

	var err error
	Pool, err = pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := Pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}

// Migrate creates the tables the dashboard API reads and writes.
func Migrate(ctx context.Context, conn DBTX) error {
	_, err := conn.Exec(ctx, schema)
	return err
}

const schema = `
	-- Gmail mailboxes linked through the OAuth consent flow
	CREATE TABLE IF NOT EXISTS connected_accounts (
	    id UUID PRIMARY KEY,
	    user_id UUID NOT NULL,
	    email VARCHAR(320) NOT NULL,
	    access_token TEXT NOT NULL,
	    refresh_token TEXT NOT NULL DEFAULT '',
	    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	    UNIQUE (user_id, email)
	);

	CREATE INDEX IF NOT EXISTS idx_connected_accounts_user_id ON connected_accounts(user_id);

	-- One preference bundle per user
	CREATE TABLE IF NOT EXISTS user_settings (
	    user_id UUID PRIMARY KEY,
	    product_updates BOOLEAN NOT NULL,
	    marketing_emails BOOLEAN NOT NULL,
	    summary_email BOOLEAN NOT NULL,
	    summary_whatsapp BOOLEAN NOT NULL,
	    preferred_time VARCHAR(5) NOT NULL,
	    timezone VARCHAR(64) NOT NULL,
	    language VARCHAR(16) NOT NULL,
	    full_name TEXT,
	    phone_number TEXT,
	    whatsapp_number TEXT,
	    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
`
