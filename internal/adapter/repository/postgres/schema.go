package postgres

import (
	"context"
	"fmt"
)

// idempotencyKeyConstraint names the unique constraint a duplicate insert violates
const idempotencyKeyConstraint = "transactions_idempotency_key_unique"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         BIGSERIAL PRIMARY KEY,
		balance    NUMERIC(20, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id              BIGSERIAL PRIMARY KEY,
		idempotency_key VARCHAR(255) NOT NULL,
		sender_id       BIGINT NOT NULL REFERENCES accounts (id),
		receiver_id     BIGINT NOT NULL REFERENCES accounts (id),
		amount          NUMERIC(20, 2) NOT NULL CHECK (amount >= 0),
		commission_fee  NUMERIC(20, 2) NOT NULL CHECK (commission_fee >= 0),
		status          VARCHAR(16) NOT NULL CHECK (status IN ('success', 'failed')),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ` + idempotencyKeyConstraint + ` UNIQUE (idempotency_key)
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_sender_id_idx ON transactions (sender_id, id)`,
	`CREATE INDEX IF NOT EXISTS transactions_receiver_id_idx ON transactions (receiver_id, id)`,
}

// Migrate creates the tables and indexes if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
