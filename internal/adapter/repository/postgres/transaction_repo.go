package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wallet-ledger/internal/domain"
)

// transactionRow maps the transactions table
type transactionRow struct {
	ID             int64           `db:"id"`
	IdempotencyKey string          `db:"idempotency_key"`
	SenderID       int64           `db:"sender_id"`
	ReceiverID     int64           `db:"receiver_id"`
	Amount         decimal.Decimal `db:"amount"`
	CommissionFee  decimal.Decimal `db:"commission_fee"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r transactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:             r.ID,
		IdempotencyKey: r.IdempotencyKey,
		SenderID:       r.SenderID,
		ReceiverID:     r.ReceiverID,
		Amount:         r.Amount,
		Commission:     r.CommissionFee,
		Status:         domain.TransactionStatus(r.Status),
		CreatedAt:      r.CreatedAt,
	}
}

// transactionRepository implements domain.TransactionRepository inside a database transaction
type transactionRepository struct {
	tx *sqlx.Tx
}

// NewTransactionRepository creates a transaction repository bound to a database transaction
func NewTransactionRepository(tx *sqlx.Tx) domain.TransactionRepository {
	return &transactionRepository{tx: tx}
}

// GetByIdempotencyKey retrieves a transaction by its idempotency key
func (r *transactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	return getTransactionByIdempotencyKey(ctx, r.tx, key)
}

// Create inserts the transaction and fills in the generated ID and CreatedAt
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (idempotency_key, sender_id, receiver_id, amount, commission_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.tx.QueryRowxContext(ctx, query,
		tx.IdempotencyKey,
		tx.SenderID,
		tx.ReceiverID,
		tx.AmountString(),
		tx.CommissionString(),
		string(tx.Status),
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, idempotencyKeyConstraint) {
			return domain.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

func getTransactionByIdempotencyKey(ctx context.Context, q sqlx.QueryerContext, key string) (*domain.Transaction, error) {
	query := `
		SELECT id, idempotency_key, sender_id, receiver_id, amount, commission_fee, status, created_at
		FROM transactions
		WHERE idempotency_key = $1
	`

	var row transactionRow
	if err := sqlx.GetContext(ctx, q, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return row.toDomain(), nil
}
