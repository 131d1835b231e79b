package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountRepository defines account persistence operations available inside a unit of work
type AccountRepository interface {
	// LockByID takes an exclusive row lock on the account and returns its current state.
	// The lock is held until the unit of work commits or rolls back.
	// Returns ErrAccountNotFound if the account does not exist.
	LockByID(ctx context.Context, id int64) (*Account, error)

	// UpdateBalance overwrites the balance of an account locked by this unit of work
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
}

// TransactionRepository defines transaction persistence operations available inside a unit of work
type TransactionRepository interface {
	// GetByIdempotencyKey retrieves a transaction by its idempotency key.
	// Returns ErrTransactionNotFound if no transaction uses the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// Create inserts a new transaction and fills in its ID and CreatedAt.
	// Returns ErrDuplicateIdempotencyKey if the key is already taken.
	Create(ctx context.Context, tx *Transaction) error
}

// Repositories bundles the repositories bound to one unit of work
type Repositories struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
}

// UnitOfWork runs a function atomically against the stores.
// If fn returns an error every change it made is discarded and the error is
// returned unchanged; otherwise the changes are committed.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is the full persistence surface the wallet needs: the unit of work
// plus committed-state reads used outside of it.
type Store interface {
	UnitOfWork

	// GetAccount reads the committed state of an account without locking it.
	// Returns ErrAccountNotFound if the account does not exist.
	GetAccount(ctx context.Context, id int64) (*Account, error)

	// GetTransactionByIdempotencyKey reads a committed transaction.
	// Returns ErrTransactionNotFound if no transaction uses the key.
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
}
