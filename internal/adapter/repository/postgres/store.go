package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wallet-ledger/internal/domain"
)

// store implements domain.Store on top of a DB
type store struct {
	db *DB
}

// NewStore creates a new Postgres-backed store
func NewStore(db *DB) domain.Store {
	return &store{db: db}
}

// Do runs fn inside a READ COMMITTED database transaction.
// Row locks taken by fn are released on commit or rollback.
func (s *store) Do(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.db.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.db.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if err := fn(ctx, domain.Repositories{
		Accounts:     NewAccountRepository(tx),
		Transactions: NewTransactionRepository(tx),
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAccount reads the committed state of an account
func (s *store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return getAccount(ctx, s.db, id)
}

// GetTransactionByIdempotencyKey reads a committed transaction
func (s *store) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return getTransactionByIdempotencyKey(ctx, s.db, key)
}

// CreateAccount provisions an account with an opening balance
func (db *DB) CreateAccount(ctx context.Context, balance decimal.Decimal) (*domain.Account, error) {
	account := &domain.Account{Balance: balance}

	query := `INSERT INTO accounts (balance) VALUES ($1) RETURNING id`
	if err := db.QueryRowxContext(ctx, query, balance.StringFixed(2)).Scan(&account.ID); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}
