package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/simaogato/wallet-ledger/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode codes.Code
		expectedMsg  string
	}{
		{name: "Invalid amount format", err: domain.ErrInvalidAmountFormat, expectedCode: codes.InvalidArgument, expectedMsg: "Invalid amount format."},
		{name: "Zero amount", err: domain.ErrAmountMustBeGreaterThanZero, expectedCode: codes.InvalidArgument, expectedMsg: "Amount must be greater than zero."},
		{name: "Amount too large", err: domain.ErrAmountTooLarge, expectedCode: codes.InvalidArgument, expectedMsg: "Amount is too large."},
		{name: "Self transfer", err: domain.ErrCannotTransferToSelf, expectedCode: codes.FailedPrecondition, expectedMsg: "Cannot transfer to the same user."},
		{name: "Insufficient funds", err: domain.ErrInsufficientFunds, expectedCode: codes.FailedPrecondition, expectedMsg: "Insufficient balance to perform transfer."},
		{name: "Sender not found", err: domain.ErrSenderNotFound, expectedCode: codes.FailedPrecondition, expectedMsg: "Sender not found."},
		{name: "Receiver not found", err: domain.ErrReceiverNotFound, expectedCode: codes.FailedPrecondition, expectedMsg: "Receiver not found."},
		{name: "Idempotency conflict", err: domain.ErrIdempotencyConflict, expectedCode: codes.AlreadyExists, expectedMsg: "Idempotency key reused with different parameters."},
		{name: "Wrapped wallet error", err: fmt.Errorf("wrapped: %w", domain.ErrInsufficientFunds), expectedCode: codes.FailedPrecondition, expectedMsg: "Insufficient balance to perform transfer."},
		{name: "Infrastructure error is hidden", err: errors.New("pq: connection refused"), expectedCode: codes.Internal, expectedMsg: "internal error"},
		{name: "Canceled", err: fmt.Errorf("lock: %w", context.Canceled), expectedCode: codes.Canceled, expectedMsg: "request canceled"},
		{name: "Deadline", err: fmt.Errorf("lock: %w", context.DeadlineExceeded), expectedCode: codes.DeadlineExceeded, expectedMsg: "deadline exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(context.Background(), tt.err)
			st, ok := status.FromError(err)
			assert.True(t, ok, "error should be a gRPC status")
			assert.Equal(t, tt.expectedCode, st.Code())
			assert.Equal(t, tt.expectedMsg, st.Message())
		})
	}

	assert.NoError(t, mapError(context.Background(), nil))
}
