package transfer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wallet-ledger/internal/domain"
	"github.com/simaogato/wallet-ledger/internal/usecase/commission"
)

// TransferInput represents the input for a transfer.
// Sender must be an already authenticated account reference; the service
// never resolves the caller's identity on its own.
type TransferInput struct {
	Sender         *domain.Account
	ReceiverID     int64
	Amount         string // Raw decimal string, validated again here regardless of the caller
	IdempotencyKey string // Optional; a UUID is generated when empty
}

// TransferResult is the persisted transaction and whether it was replayed
// from an earlier request with the same idempotency key
type TransferResult struct {
	Transaction *domain.Transaction
	Replayed    bool
}

// TransferService moves funds between accounts with a commission fee
type TransferService struct {
	Store  domain.Store
	NewKey func() string
}

// NewTransferService creates a new TransferService instance
func NewTransferService(store domain.Store) *TransferService {
	return &TransferService{
		Store:  store,
		NewKey: uuid.NewString,
	}
}

// Transfer debits amount + commission from the sender and credits amount to the receiver
// Logic:
//  1. Reject self transfers, malformed and zero amounts before touching the store
//  2. Inside one unit of work:
//     - Replay or reject when the idempotency key was already used
//     - Lock both accounts in ascending ID order
//     - Check funds and bounds, apply both balance changes, insert the record
//  3. If the insert lost a race on the idempotency key, everything is rolled
//     back and the winner's record is compared with this request instead
func (s *TransferService) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.Sender == nil {
		return nil, domain.ErrSenderNotFound
	}

	// 1. Validate input
	if input.Sender.ID == input.ReceiverID {
		return nil, domain.ErrCannotTransferToSelf
	}

	amount, err := domain.NormalizeAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	if domain.IsZeroAmount(amount) {
		return nil, domain.ErrAmountMustBeGreaterThanZero
	}

	req := request{
		senderID:   input.Sender.ID,
		receiverID: input.ReceiverID,
		amount:     amount,
		key:        input.IdempotencyKey,
	}
	if req.key == "" {
		req.key = s.NewKey()
		req.generatedKey = true
	}

	// 2. Run the transfer atomically
	var result *TransferResult
	err = s.Store.Do(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		result, err = s.execute(ctx, repos, req)
		return err
	})

	// 3. Recover from a concurrent insert with the same key
	if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		return s.recoverDuplicate(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// request is a validated transfer request
type request struct {
	senderID     int64
	receiverID   int64
	amount       string // Normalized, non-zero
	key          string
	generatedKey bool
}

func (s *TransferService) execute(ctx context.Context, repos domain.Repositories, req request) (*TransferResult, error) {
	// Fast path: a caller supplied key that was already used
	if !req.generatedKey {
		existing, err := repos.Transactions.GetByIdempotencyKey(ctx, req.key)
		switch {
		case err == nil:
			return replay(existing, req)
		case !errors.Is(err, domain.ErrTransactionNotFound):
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	sender, receiver, err := lockAccounts(ctx, repos.Accounts, req.senderID, req.receiverID)
	if err != nil {
		return nil, err
	}

	m, err := computeMovement(req.amount, sender, receiver)
	if err != nil {
		return nil, err
	}

	if err := repos.Accounts.UpdateBalance(ctx, sender.ID, centsToDecimal(m.senderBalance)); err != nil {
		return nil, fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := repos.Accounts.UpdateBalance(ctx, receiver.ID, centsToDecimal(m.receiverBalance)); err != nil {
		return nil, fmt.Errorf("failed to credit receiver: %w", err)
	}

	tx := &domain.Transaction{
		IdempotencyKey: req.key,
		SenderID:       sender.ID,
		ReceiverID:     receiver.ID,
		Amount:         centsToDecimal(m.amount),
		Commission:     centsToDecimal(m.commission),
		Status:         domain.TransactionStatusSuccess,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := repos.Transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	return &TransferResult{Transaction: tx}, nil
}

// lockAccounts locks both accounts in ascending ID order, whichever is the sender.
// Every transfer follows the same global order, which rules out circular waits.
func lockAccounts(ctx context.Context, accounts domain.AccountRepository, senderID, receiverID int64) (*domain.Account, *domain.Account, error) {
	ids := []int64{senderID, receiverID}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[int64]*domain.Account, len(ids))
	for _, id := range ids {
		account, err := accounts.LockByID(ctx, id)
		if errors.Is(err, domain.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to lock account %d: %w", id, err)
		}
		locked[id] = account
	}

	// Re-resolve both parties from the freshly locked rows
	sender, ok := locked[senderID]
	if !ok {
		return nil, nil, domain.ErrSenderNotFound
	}
	receiver, ok := locked[receiverID]
	if !ok {
		return nil, nil, domain.ErrReceiverNotFound
	}

	return sender, receiver, nil
}

// movement holds the cent values of one transfer
type movement struct {
	amount          int64
	commission      int64
	senderBalance   int64 // After the debit
	receiverBalance int64 // After the credit
}

// computeMovement checks funds and integer bounds and computes the resulting balances
func computeMovement(amount string, sender, receiver *domain.Account) (*movement, error) {
	senderBalance, err := domain.NormalizeAmount(sender.BalanceString())
	if err != nil {
		return nil, fmt.Errorf("account %d has an invalid balance %s: %w", sender.ID, sender.BalanceString(), err)
	}

	// Coarse check on the decimal strings; never attempts a conversion
	if domain.CompareAmounts(amount, senderBalance) > 0 {
		return nil, domain.ErrInsufficientFunds
	}

	if !domain.IsRepresentable(amount) {
		return nil, domain.ErrAmountTooLarge
	}

	amountCents, err := domain.ToCents(amount)
	if err != nil {
		return nil, err
	}
	senderCents, err := domain.ToCents(senderBalance)
	if err != nil {
		return nil, err
	}

	receiverBalance, err := domain.NormalizeAmount(receiver.BalanceString())
	if err != nil {
		return nil, fmt.Errorf("account %d has an invalid balance %s: %w", receiver.ID, receiver.BalanceString(), err)
	}
	receiverCents, err := domain.ToCents(receiverBalance)
	if err != nil {
		return nil, err
	}

	commissionCents, err := commission.Calculate(amountCents)
	if err != nil {
		return nil, err
	}

	if amountCents > math.MaxInt64-commissionCents {
		return nil, domain.ErrAmountTooLarge
	}
	totalDebit := amountCents + commissionCents

	// Exact check, authoritative over the coarse one
	if senderCents < totalDebit {
		return nil, domain.ErrInsufficientFunds
	}

	if receiverCents > math.MaxInt64-amountCents {
		return nil, domain.ErrAmountTooLarge
	}

	return &movement{
		amount:          amountCents,
		commission:      commissionCents,
		senderBalance:   senderCents - totalDebit,
		receiverBalance: receiverCents + amountCents,
	}, nil
}

// recoverDuplicate resolves an insert that collided with a concurrent request.
// The colliding unit of work is already rolled back at this point.
func (s *TransferService) recoverDuplicate(ctx context.Context, req request) (*TransferResult, error) {
	existing, err := s.Store.GetTransactionByIdempotencyKey(ctx, req.key)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read transaction after duplicate idempotency key: %w", err)
	}
	return replay(existing, req)
}

// replay returns the existing transaction if it matches the request
func replay(existing *domain.Transaction, req request) (*TransferResult, error) {
	if !existing.Matches(req.senderID, req.receiverID, req.amount) {
		return nil, domain.ErrIdempotencyConflict
	}
	return &TransferResult{Transaction: existing, Replayed: true}, nil
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
