package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	name string
	sql  string
}

// Constraint and index names are referenced by pkg/repository/postgres when
// translating unique violations.
var migrations = []migration{
	{"discount_codes table", `
		CREATE TABLE IF NOT EXISTS discount_codes (
			code VARCHAR(64) PRIMARY KEY,
			discount_percent INT NOT NULL CHECK (discount_percent >= 0 AND discount_percent <= 100),
			kind VARCHAR(16) NOT NULL CHECK (kind IN ('wishlist', 'wheel', 'contest', 'popup')),
			owner_user_id VARCHAR(255) NOT NULL,
			prize_type VARCHAR(16) NOT NULL DEFAULT '',
			issued_day VARCHAR(10) NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at TIMESTAMP WITH TIME ZONE,
			linked_items TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (NOT used OR used_at IS NOT NULL)
		)
	`},
	{"wheel daily index", `
		CREATE UNIQUE INDEX IF NOT EXISTS uq_discount_codes_wheel_daily
		ON discount_codes(owner_user_id, issued_day) WHERE kind = 'wheel'
	`},
	{"discount_codes owner index", `
		CREATE INDEX IF NOT EXISTS idx_discount_codes_owner ON discount_codes(owner_user_id, expires_at)
	`},
	{"promo_codes table", `
		CREATE TABLE IF NOT EXISTS promo_codes (
			code VARCHAR(64) PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			discount_type VARCHAR(16) NOT NULL CHECK (discount_type IN ('percentage', 'fixed')),
			discount_value NUMERIC(12, 2) NOT NULL CHECK (discount_value >= 0),
			max_uses INT CHECK (max_uses IS NULL OR max_uses > 0),
			used_count INT NOT NULL DEFAULT 0 CHECK (used_count >= 0),
			min_order_amount NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (min_order_amount >= 0),
			expires_at TIMESTAMP WITH TIME ZONE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (discount_type <> 'percentage' OR discount_value <= 100),
			CHECK (max_uses IS NULL OR used_count <= max_uses)
		)
	`},
	{"gift_cards table", `
		CREATE TABLE IF NOT EXISTS gift_cards (
			code VARCHAR(64) PRIMARY KEY,
			initial_amount NUMERIC(12, 2) NOT NULL CHECK (initial_amount > 0),
			balance NUMERIC(12, 2) NOT NULL CHECK (balance >= 0 AND balance <= initial_amount),
			recipient_email VARCHAR(255) NOT NULL DEFAULT '',
			recipient_name VARCHAR(255) NOT NULL DEFAULT '',
			sender_name VARCHAR(255) NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			expiry_date TIMESTAMP WITH TIME ZONE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			purchased_by VARCHAR(255) NOT NULL DEFAULT '',
			used_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"gift_card_transactions table", `
		CREATE TABLE IF NOT EXISTS gift_card_transactions (
			id VARCHAR(36) PRIMARY KEY,
			code VARCHAR(64) NOT NULL REFERENCES gift_cards(code) ON DELETE CASCADE,
			order_ref VARCHAR(255) NOT NULL,
			amount_delta NUMERIC(12, 2) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"gift_card_transactions index", `
		CREATE INDEX IF NOT EXISTS idx_gift_card_transactions_code ON gift_card_transactions(code)
	`},
	{"loyalty_accounts table", `
		CREATE TABLE IF NOT EXISTS loyalty_accounts (
			user_id VARCHAR(255) PRIMARY KEY,
			total_points BIGINT NOT NULL DEFAULT 0 CHECK (total_points >= 0),
			tier VARCHAR(16) NOT NULL DEFAULT 'bronze' CHECK (tier IN ('bronze', 'silver', 'gold', 'platinum')),
			redeemed_points BIGINT NOT NULL DEFAULT 0 CHECK (redeemed_points >= 0),
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"loyalty_transactions table", `
		CREATE TABLE IF NOT EXISTS loyalty_transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL REFERENCES loyalty_accounts(user_id),
			order_ref VARCHAR(255) NOT NULL DEFAULT '',
			points_delta BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"loyalty_transactions index", `
		CREATE INDEX IF NOT EXISTS idx_loyalty_transactions_user ON loyalty_transactions(user_id)
	`},
	{"contest_entries table", `
		CREATE TABLE IF NOT EXISTS contest_entries (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			day VARCHAR(10) NOT NULL,
			method VARCHAR(16) NOT NULL CHECK (method IN ('spin', 'ornament', 'quiz')),
			is_winner BOOLEAN NOT NULL DEFAULT FALSE,
			prize_code VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_contest_entries_user_day UNIQUE (user_id, day)
		)
	`},
	{"contest_entries day index", `
		CREATE INDEX IF NOT EXISTS idx_contest_entries_day ON contest_entries(day)
	`},
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply %s: %w", m.name, err)
		}
	}
	return nil
}
