package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletError_CodesAndClasses(t *testing.T) {
	tests := []struct {
		err        *WalletError
		code       string
		class      StatusClass
		httpStatus int
	}{
		{ErrInvalidAmountFormat, "wallet.invalid_amount_format", StatusClassBadRequest, http.StatusBadRequest},
		{ErrAmountMustBeGreaterThanZero, "wallet.amount_must_be_greater_than_zero", StatusClassBadRequest, http.StatusBadRequest},
		{ErrAmountTooLarge, "wallet.amount_too_large", StatusClassBadRequest, http.StatusBadRequest},
		{ErrCannotTransferToSelf, "wallet.cannot_transfer_to_self", StatusClassUnprocessable, http.StatusUnprocessableEntity},
		{ErrInsufficientFunds, "wallet.insufficient_funds", StatusClassUnprocessable, http.StatusUnprocessableEntity},
		{ErrSenderNotFound, "wallet.sender_not_found", StatusClassUnprocessable, http.StatusUnprocessableEntity},
		{ErrReceiverNotFound, "wallet.receiver_not_found", StatusClassUnprocessable, http.StatusUnprocessableEntity},
		{ErrIdempotencyConflict, "wallet.idempotency_conflict", StatusClassConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Equal(t, tt.class, tt.err.Kind.StatusClass())
			assert.Equal(t, tt.httpStatus, tt.err.Kind.StatusClass().HTTPStatus())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestWalletError_Is(t *testing.T) {
	custom := NewWalletError(KindInsufficientFunds, "custom message")
	wrapped := fmt.Errorf("transfer: %w", custom)

	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
	assert.NotErrorIs(t, wrapped, ErrSenderNotFound)
	assert.False(t, errors.Is(ErrAccountNotFound, ErrSenderNotFound))
}

func TestAsWalletError(t *testing.T) {
	walletErr, ok := AsWalletError(fmt.Errorf("wrapped: %w", ErrReceiverNotFound))
	require.True(t, ok)
	assert.Equal(t, KindReceiverNotFound, walletErr.Kind)
	assert.Equal(t, "Receiver not found.", walletErr.Error())

	_, ok = AsWalletError(errors.New("boom"))
	assert.False(t, ok)
}

func TestErrorKind_UnknownString(t *testing.T) {
	assert.Equal(t, "Unknown", ErrorKind(0).String())
}
