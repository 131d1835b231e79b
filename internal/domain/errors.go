package domain

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
)

// ErrorKind enumerates every business rule violation the wallet can report.
// The set is closed: adapters switch over it exhaustively.
type ErrorKind int

const (
	KindInvalidAmountFormat ErrorKind = iota + 1
	KindAmountMustBeGreaterThanZero
	KindAmountTooLarge
	KindCannotTransferToSelf
	KindInsufficientFunds
	KindSenderNotFound
	KindReceiverNotFound
	KindIdempotencyConflict
)

var kindNames = map[ErrorKind]string{
	KindInvalidAmountFormat:         "InvalidAmountFormat",
	KindAmountMustBeGreaterThanZero: "AmountMustBeGreaterThanZero",
	KindAmountTooLarge:              "AmountTooLarge",
	KindCannotTransferToSelf:        "CannotTransferToSelf",
	KindInsufficientFunds:           "InsufficientFunds",
	KindSenderNotFound:              "SenderNotFound",
	KindReceiverNotFound:            "ReceiverNotFound",
	KindIdempotencyConflict:         "IdempotencyConflict",
}

// String returns the kind name, e.g. "InsufficientFunds"
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Code returns the stable machine-readable code, e.g. "wallet.insufficient_funds"
func (k ErrorKind) Code() string {
	return "wallet." + toSnakeCase(k.String())
}

// StatusClass groups kinds by how a transport should present them
type StatusClass int

const (
	StatusClassUnprocessable StatusClass = iota // business rule rejected the request
	StatusClassBadRequest                       // the request itself is malformed
	StatusClassConflict                         // the request clashes with a prior one
)

// HTTPStatus returns the HTTP status code suggested for the class
func (c StatusClass) HTTPStatus() int {
	switch c {
	case StatusClassBadRequest:
		return http.StatusBadRequest
	case StatusClassConflict:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// StatusClass returns the transport status class of the kind
func (k ErrorKind) StatusClass() StatusClass {
	switch k {
	case KindInvalidAmountFormat, KindAmountMustBeGreaterThanZero, KindAmountTooLarge:
		return StatusClassBadRequest
	case KindIdempotencyConflict:
		return StatusClassConflict
	default:
		return StatusClassUnprocessable
	}
}

// WalletError is the single error type for wallet business rule violations.
// It is always raised before anything is persisted.
type WalletError struct {
	Kind    ErrorKind
	Message string
}

// NewWalletError creates a WalletError of the given kind
func NewWalletError(kind ErrorKind, message string) *WalletError {
	return &WalletError{Kind: kind, Message: message}
}

func (e *WalletError) Error() string {
	return e.Message
}

// Code returns the machine-readable code of the error kind
func (e *WalletError) Code() string {
	return e.Kind.Code()
}

// Is makes errors.Is match any WalletError of the same kind, so the sentinels
// below work regardless of message.
func (e *WalletError) Is(target error) bool {
	var other *WalletError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// AsWalletError extracts a WalletError from an error chain
func AsWalletError(err error) (*WalletError, bool) {
	var walletErr *WalletError
	if errors.As(err, &walletErr) {
		return walletErr, true
	}
	return nil, false
}

// Wallet errors
var (
	ErrInvalidAmountFormat         = NewWalletError(KindInvalidAmountFormat, "Invalid amount format.")
	ErrAmountMustBeGreaterThanZero = NewWalletError(KindAmountMustBeGreaterThanZero, "Amount must be greater than zero.")
	ErrAmountTooLarge              = NewWalletError(KindAmountTooLarge, "Amount is too large.")
	ErrCannotTransferToSelf        = NewWalletError(KindCannotTransferToSelf, "Cannot transfer to the same user.")
	ErrInsufficientFunds           = NewWalletError(KindInsufficientFunds, "Insufficient balance to perform transfer.")
	ErrSenderNotFound              = NewWalletError(KindSenderNotFound, "Sender not found.")
	ErrReceiverNotFound            = NewWalletError(KindReceiverNotFound, "Receiver not found.")
	ErrIdempotencyConflict         = NewWalletError(KindIdempotencyConflict, "Idempotency key reused with different parameters.")
)

// Repository errors. These are infrastructure signals, not wallet errors.
var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
