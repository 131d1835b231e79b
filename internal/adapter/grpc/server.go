package grpc

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wallet-ledger/internal/domain"
	"github.com/simaogato/wallet-ledger/internal/usecase/transfer"
)

// Metadata keys specific to the transfer RPC
const (
	IdempotencyKeyHeader   = "idempotency-key"
	IdempotentReplayHeader = "idempotent-replay"
)

// maxExactInteger is the largest integer a JSON/Struct number represents exactly
const maxExactInteger = 1 << 53

// Server implements the LedgerService gRPC server
type Server struct {
	TransferService *transfer.TransferService
	Accounts        AccountLookup
}

// NewServer creates a new gRPC server instance
func NewServer(transferService *transfer.TransferService, accounts AccountLookup) *Server {
	return &Server{
		TransferService: transferService,
		Accounts:        accounts,
	}
}

// Transfer handles the Transfer RPC.
// Request fields: receiver_id (number or string), amount (number or string),
// idempotency_key (optional, the idempotency-key header takes precedence).
func (s *Server) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sender, ok := SenderFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	fields := req.GetFields()

	receiverID, err := parseAccountID(fields["receiver_id"])
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid receiver_id: %v", err)
	}

	idempotencyKey := idempotencyKeyFrom(ctx, fields["idempotency_key"])
	if len(idempotencyKey) > domain.MaxIdempotencyKeyLength {
		return nil, status.Errorf(codes.InvalidArgument, "idempotency key must not exceed %d characters", domain.MaxIdempotencyKeyLength)
	}

	// Build input for usecase
	input := transfer.TransferInput{
		Sender:         sender,
		ReceiverID:     receiverID,
		Amount:         coerceAmount(fields["amount"]),
		IdempotencyKey: idempotencyKey,
	}

	// Call usecase service
	result, err := s.TransferService.Transfer(ctx, input)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	if result.Replayed {
		_ = grpc.SetHeader(ctx, metadata.Pairs(IdempotentReplayHeader, "true"))
	}

	// Build response
	return transactionResponse(result.Transaction, result.Replayed)
}

// GetBalance handles the GetBalance RPC for the authenticated account
func (s *Server) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sender, ok := SenderFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	account, err := s.Accounts.GetAccount(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, status.Error(codes.NotFound, "account not found")
		}
		return nil, mapError(ctx, err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"account_id": account.ID,
		"balance":    account.BalanceString(),
	})
}

func transactionResponse(tx *domain.Transaction, replayed bool) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(map[string]interface{}{
		"transaction_id":    tx.ID,
		"idempotency_key":   tx.IdempotencyKey,
		"sender_id":         tx.SenderID,
		"receiver_id":       tx.ReceiverID,
		"amount":            tx.AmountString(),
		"commission_fee":    tx.CommissionString(),
		"status":            string(tx.Status),
		"created_at":        tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		"idempotent_replay": replayed,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return resp, nil
}

// parseAccountID accepts a positive integer given as a number or a string
func parseAccountID(v *structpb.Value) (int64, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n <= 0 || n > maxExactInteger {
			return 0, errors.New("must be a positive integer")
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		id, err := strconv.ParseInt(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.New("must be a positive integer")
		}
		return id, nil
	default:
		return 0, errors.New("is required")
	}
}

// coerceAmount turns the amount field into the decimal string the usecase validates.
// Integral numbers get ".00"; other numbers use their shortest exact form so
// that sub-cent precision is rejected instead of rounded away.
func coerceAmount(v *structpb.Value) string {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(kind.StringValue)
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return ""
		}
		if n == math.Trunc(n) {
			return strconv.FormatFloat(n, 'f', 0, 64) + ".00"
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return ""
	}
}

// idempotencyKeyFrom prefers the idempotency-key header over the request field
func idempotencyKeyFrom(ctx context.Context, field *structpb.Value) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(IdempotencyKeyHeader); len(values) > 0 {
			if key := strings.TrimSpace(values[0]); key != "" {
				return key
			}
		}
	}
	return strings.TrimSpace(field.GetStringValue())
}
