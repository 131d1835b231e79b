package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the outcome recorded for a transfer
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// MaxIdempotencyKeyLength matches the width of the idempotency_key column
const MaxIdempotencyKeyLength = 255

// Transaction represents a completed transfer between two accounts.
// Records are created exactly once per idempotency key and never mutated.
type Transaction struct {
	ID             int64 // Store-assigned, sequential
	IdempotencyKey string
	SenderID       int64
	ReceiverID     int64
	Amount         decimal.Decimal // Credited to the receiver (commission excluded)
	Commission     decimal.Decimal // Paid by the sender on top of Amount
	Status         TransactionStatus
	CreatedAt      time.Time
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.IdempotencyKey == "" {
		return errors.New("transaction idempotency key cannot be empty")
	}
	if len(t.IdempotencyKey) > MaxIdempotencyKeyLength {
		return errors.New("transaction idempotency key is too long")
	}

	if t.SenderID == t.ReceiverID {
		return errors.New("transaction sender and receiver must differ")
	}

	if t.Amount.IsNegative() || t.Commission.IsNegative() {
		return errors.New("transaction amount and commission must not be negative")
	}

	if !t.Amount.Equal(t.Amount.Truncate(2)) || !t.Commission.Equal(t.Commission.Truncate(2)) {
		return errors.New("transaction amount and commission must have at most two fractional digits")
	}

	if t.Status != TransactionStatusSuccess && t.Status != TransactionStatusFailed {
		return errors.New("transaction status must be success or failed")
	}

	return nil
}

// AmountString returns the amount as a canonical scale-2 string
func (t *Transaction) AmountString() string {
	return t.Amount.StringFixed(2)
}

// CommissionString returns the commission as a canonical scale-2 string
func (t *Transaction) CommissionString() string {
	return t.Commission.StringFixed(2)
}

// Matches reports whether the record was produced by a request with the same
// sender, receiver and normalized amount. It decides between replay and
// idempotency conflict.
func (t *Transaction) Matches(senderID, receiverID int64, normalizedAmount string) bool {
	return t.SenderID == senderID &&
		t.ReceiverID == receiverID &&
		CompareAmounts(t.AmountString(), normalizedAmount) == 0
}
