package postgres

import (
	"context"
	"fmt"
)

// schema holds the DDL for the engine's five record kinds. Transactions are
// append-only; the voucher consumed flag is write-once; both are enforced by
// the repositories rather than triggers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		external_id TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		contact TEXT NOT NULL DEFAULT '',
		points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		delta BIGINT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions (account_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		points_required BIGINT NOT NULL CHECK (points_required > 0),
		stock BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		denomination TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS vouchers (
		id BIGSERIAL PRIMARY KEY,
		denomination TEXT NOT NULL,
		code TEXT UNIQUE NOT NULL,
		consumed BOOLEAN NOT NULL DEFAULT FALSE,
		consumed_by UUID REFERENCES accounts(id),
		consumed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vouchers_pool
		ON vouchers (denomination, id) WHERE NOT consumed`,
	`CREATE TABLE IF NOT EXISTS redemptions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		reward_id BIGINT NOT NULL REFERENCES rewards(id),
		reward_name TEXT NOT NULL,
		points_spent BIGINT NOT NULL,
		voucher_code TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the engine's tables if they do not exist.
func Migrate(ctx context.Context, pool Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
