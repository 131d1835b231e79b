package grpc

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/wallet-ledger/internal/domain"
)

// ErrorCodeTrailer carries the machine-readable wallet error code, e.g. "wallet.insufficient_funds"
const ErrorCodeTrailer = "x-error-code"

// codeForClass maps a wallet error status class to a gRPC code
func codeForClass(class domain.StatusClass) codes.Code {
	switch class {
	case domain.StatusClassBadRequest:
		return codes.InvalidArgument
	case domain.StatusClassConflict:
		return codes.AlreadyExists
	default:
		return codes.FailedPrecondition
	}
}

// mapError converts usecase errors to gRPC status errors.
// Wallet errors keep their message and code; everything else is logged and
// hidden behind a generic internal error.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if walletErr, ok := domain.AsWalletError(err); ok {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorCodeTrailer, walletErr.Code()))
		return status.Error(codeForClass(walletErr.Kind.StatusClass()), walletErr.Message)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	log.Printf("[%s] internal error: %v", RequestIDFromContext(ctx), err)
	return status.Error(codes.Internal, "internal error")
}
