package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wallet-ledger/internal/domain"
)

// accountRow maps the accounts table
type accountRow struct {
	ID      int64           `db:"id"`
	Balance decimal.Decimal `db:"balance"`
}

func (r accountRow) toDomain() *domain.Account {
	return &domain.Account{ID: r.ID, Balance: r.Balance}
}

// accountRepository implements domain.AccountRepository inside a database transaction
type accountRepository struct {
	tx *sqlx.Tx
}

// NewAccountRepository creates an account repository bound to a database transaction
func NewAccountRepository(tx *sqlx.Tx) domain.AccountRepository {
	return &accountRepository{tx: tx}
}

// LockByID takes a row lock with SELECT ... FOR UPDATE
func (r *accountRepository) LockByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `
		SELECT id, balance
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	var row accountRow
	if err := sqlx.GetContext(ctx, r.tx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	return row.toDomain(), nil
}

// UpdateBalance overwrites the balance of a locked account
func (r *accountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.tx.ExecContext(ctx, query, balance.StringFixed(2), id)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// getAccount reads an account without locking it
func getAccount(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT id, balance FROM accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return row.toDomain(), nil
}
