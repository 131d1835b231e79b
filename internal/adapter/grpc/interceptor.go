package grpc

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/wallet-ledger/internal/domain"
)

// Metadata keys read or written by the interceptors
const (
	RequestIDHeader = "x-request-id"
	AccountIDHeader = "x-account-id"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	senderKey
)

// AccountLookup resolves an account by ID
type AccountLookup interface {
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
}

// RateLimiter decides whether another call for key is allowed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SenderFromContext returns the authenticated account placed by AuthInterceptor
func SenderFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(senderKey).(*domain.Account)
	return account, ok && account != nil
}

// ContextWithSender stores the authenticated account in ctx
func ContextWithSender(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, senderKey, account)
}

// RequestIDFromContext returns the request id placed by RequestIDInterceptor, or "-"
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "-"
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata and resolves the calling account.
// The token may be sent bare or as "Bearer <token>". The account is identified
// by the x-account-id header and stored in the context for the handlers.
// Any failure returns status.Unauthenticated.
func AuthInterceptor(validToken string, accounts AccountLookup) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := strings.TrimPrefix(authHeaders[0], "Bearer ")
		if token != validToken {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		accountHeaders := md.Get(AccountIDHeader)
		if len(accountHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing x-account-id header")
		}

		accountID, err := strconv.ParseInt(strings.TrimSpace(accountHeaders[0]), 10, 64)
		if err != nil || accountID <= 0 {
			return nil, status.Error(codes.Unauthenticated, "invalid account id")
		}

		account, err := accounts.GetAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, status.Error(codes.Unauthenticated, "unknown account")
			}
			log.Printf("[%s] failed to resolve account %d: %v", RequestIDFromContext(ctx), accountID, err)
			return nil, status.Error(codes.Internal, "internal error")
		}

		return handler(ContextWithSender(ctx, account), req)
	}
}

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,128}$`)

// RequestIDInterceptor accepts a well-formed x-request-id from the caller or
// generates one, stores it in the context and echoes it in the response header
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDHeader); len(values) > 0 && requestIDPattern.MatchString(values[0]) {
				requestID = values[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Fails only outside a real server stream, e.g. in unit tests
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		return handler(context.WithValue(ctx, requestIDKey, requestID), req)
	}
}

// RateLimitInterceptor throttles the listed methods per authenticated sender.
// It must run after AuthInterceptor. Limiter failures are logged and the call
// is let through.
func RateLimitInterceptor(limiter RateLimiter, methods ...string) grpc.UnaryServerInterceptor {
	limited := make(map[string]bool, len(methods))
	for _, method := range methods {
		limited[method] = true
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !limited[info.FullMethod] {
			return handler(ctx, req)
		}

		sender, ok := SenderFromContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		key := info.FullMethod + ":" + strconv.FormatInt(sender.ID, 10)
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			log.Printf("[%s] rate limiter unavailable: %v", RequestIDFromContext(ctx), err)
			return handler(ctx, req)
		}
		if !allowed {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}

		return handler(ctx, req)
	}
}
