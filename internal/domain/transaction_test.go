package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validTransaction() Transaction {
	return Transaction{
		IdempotencyKey: "key-1",
		SenderID:       1,
		ReceiverID:     2,
		Amount:         decimal.New(1000, -2),
		Commission:     decimal.New(15, -2),
		Status:         TransactionStatusSuccess,
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid transaction should pass",
			mutate:  func(tx *Transaction) {},
			wantErr: false,
		},
		{
			name:    "Failed status is allowed",
			mutate:  func(tx *Transaction) { tx.Status = TransactionStatusFailed },
			wantErr: false,
		},
		{
			name:    "Empty idempotency key should fail",
			mutate:  func(tx *Transaction) { tx.IdempotencyKey = "" },
			wantErr: true,
			errMsg:  "idempotency key cannot be empty",
		},
		{
			name:    "Oversized idempotency key should fail",
			mutate:  func(tx *Transaction) { tx.IdempotencyKey = strings.Repeat("k", MaxIdempotencyKeyLength+1) },
			wantErr: true,
			errMsg:  "idempotency key is too long",
		},
		{
			name:    "Same sender and receiver should fail",
			mutate:  func(tx *Transaction) { tx.ReceiverID = tx.SenderID },
			wantErr: true,
			errMsg:  "sender and receiver must differ",
		},
		{
			name:    "Negative commission should fail",
			mutate:  func(tx *Transaction) { tx.Commission = decimal.New(-1, -2) },
			wantErr: true,
			errMsg:  "must not be negative",
		},
		{
			name:    "Sub-cent amount should fail",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.RequireFromString("0.001") },
			wantErr: true,
			errMsg:  "at most two fractional digits",
		},
		{
			name:    "Unknown status should fail",
			mutate:  func(tx *Transaction) { tx.Status = "pending" },
			wantErr: true,
			errMsg:  "status must be success or failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)

			err := tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransaction_Matches(t *testing.T) {
	tx := validTransaction()

	assert.True(t, tx.Matches(1, 2, "10.00"))
	assert.True(t, tx.Matches(1, 2, "0010.00"))
	assert.False(t, tx.Matches(1, 2, "10.01"))
	assert.False(t, tx.Matches(1, 3, "10.00"))
	assert.False(t, tx.Matches(2, 1, "10.00"))
}

func TestTransaction_Strings(t *testing.T) {
	tx := validTransaction()
	assert.Equal(t, "10.00", tx.AmountString())
	assert.Equal(t, "0.15", tx.CommissionString())
}
