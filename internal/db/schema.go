package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		email text NOT NULL,
		password_hash text NOT NULL,
		role text NOT NULL DEFAULT 'EMPLOYEE',
		position text NOT NULL DEFAULT 'Employee',
		company_name text,
		phone text,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS companies (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		owner_user_id uuid REFERENCES users (id),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS companies_name_key ON companies (lower(name))`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL REFERENCES users (id),
		date date NOT NULL,
		check_in_time timestamptz,
		check_out_time timestamptz,
		status text NOT NULL DEFAULT 'PRESENT',
		UNIQUE (user_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS leaves (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL REFERENCES users (id),
		start_date date NOT NULL,
		end_date date NOT NULL,
		type text NOT NULL,
		status text NOT NULL DEFAULT 'PENDING',
		reason text NOT NULL DEFAULT '',
		attachment_url text,
		created_at timestamptz NOT NULL DEFAULT now(),
		decided_at timestamptz,
		decided_by uuid REFERENCES users (id),
		CHECK (end_date >= start_date)
	)`,
	`CREATE INDEX IF NOT EXISTS leaves_user_id_idx ON leaves (user_id)`,
}

// Migrate creates the tables when they are missing. It is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
