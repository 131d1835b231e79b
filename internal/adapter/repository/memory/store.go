// Package memory provides an in-process implementation of domain.Store.
// It mirrors the row locking and unique constraint behaviour of the Postgres
// store closely enough to run the transfer engine's concurrency tests without
// a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wallet-ledger/internal/domain"
)

// LockHook is called each time a unit of work acquires an account lock
type LockHook func(ctx context.Context, accountID int64)

// Store is a thread-safe in-memory domain.Store
type Store struct {
	mu           sync.Mutex
	nextAccount  int64
	nextTx       int64
	accounts     map[int64]*row
	transactions map[string]*domain.Transaction
	reserved     map[string]*reservation

	// OnLock, when set, observes lock acquisition order
	OnLock LockHook

	now func() time.Time
}

type row struct {
	lock    chan struct{} // capacity 1: held while a unit of work owns the row
	balance decimal.Decimal
}

// reservation marks an idempotency key claimed by an uncommitted unit of work
type reservation struct {
	done      chan struct{}
	committed bool
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		accounts:     make(map[int64]*row),
		transactions: make(map[string]*domain.Transaction),
		reserved:     make(map[string]*reservation),
		now:          time.Now,
	}
}

// CreateAccount provisions an account with an opening balance and returns it
func (s *Store) CreateAccount(ctx context.Context, balance decimal.Decimal) (*domain.Account, error) {
	account := &domain.Account{Balance: balance}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccount++
	account.ID = s.nextAccount
	if err := account.Validate(); err != nil {
		s.nextAccount--
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.accounts[account.ID] = &row{
		lock:    make(chan struct{}, 1),
		balance: balance,
	}
	return account, nil
}

// GetAccount reads the committed state of an account without locking it
func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &domain.Account{ID: id, Balance: r.balance}, nil
}

// GetTransactionByIdempotencyKey reads a committed transaction
func (s *Store) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[key]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

// Transactions returns every committed transaction ordered by ID
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Transaction, len(s.transactions))
	for _, tx := range s.transactions {
		result[tx.ID-1] = *tx
	}
	return result
}

// Do runs fn in a unit of work. Balance writes and inserts are staged and only
// become visible on commit; account locks are released either way.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	uow := &unitOfWork{
		store:    s,
		locked:   make(map[int64]*row),
		balances: make(map[int64]decimal.Decimal),
	}
	defer uow.release()

	if err := fn(ctx, domain.Repositories{
		Accounts:     &accountRepository{uow: uow},
		Transactions: &transactionRepository{uow: uow},
	}); err != nil {
		return err
	}

	uow.commit()
	return nil
}

type unitOfWork struct {
	store     *Store
	locked    map[int64]*row
	balances  map[int64]decimal.Decimal
	inserts   []*domain.Transaction
	reserved  []string
	committed bool
}

func (u *unitOfWork) lock(ctx context.Context, id int64) (*row, error) {
	if r, ok := u.locked[id]; ok {
		return r, nil
	}

	u.store.mu.Lock()
	r, ok := u.store.accounts[id]
	u.store.mu.Unlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	select {
	case r.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to lock account %d: %w", id, ctx.Err())
	}

	u.locked[id] = r
	if hook := u.store.OnLock; hook != nil {
		hook(ctx, id)
	}
	return r, nil
}

// reserve claims an idempotency key, waiting on any other unit of work that
// holds it the same way a unique index blocks a concurrent insert
func (u *unitOfWork) reserve(ctx context.Context, key string) error {
	for {
		u.store.mu.Lock()
		if _, ok := u.store.transactions[key]; ok {
			u.store.mu.Unlock()
			return domain.ErrDuplicateIdempotencyKey
		}
		pending, ok := u.store.reserved[key]
		if !ok {
			u.store.reserved[key] = &reservation{done: make(chan struct{})}
			u.store.mu.Unlock()
			u.reserved = append(u.reserved, key)
			return nil
		}
		u.store.mu.Unlock()

		select {
		case <-pending.done:
			if pending.committed {
				return domain.ErrDuplicateIdempotencyKey
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (u *unitOfWork) commit() {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, balance := range u.balances {
		s.accounts[id].balance = balance
	}

	for _, tx := range u.inserts {
		s.nextTx++
		tx.ID = s.nextTx
		tx.CreatedAt = s.now()
		copied := *tx
		s.transactions[tx.IdempotencyKey] = &copied
	}
	u.committed = true
}

func (u *unitOfWork) release() {
	s := u.store
	s.mu.Lock()
	for _, key := range u.reserved {
		if r, ok := s.reserved[key]; ok {
			r.committed = u.committed
			delete(s.reserved, key)
			close(r.done)
		}
	}
	s.mu.Unlock()

	for _, r := range u.locked {
		<-r.lock
	}
}

type accountRepository struct {
	uow *unitOfWork
}

func (r *accountRepository) LockByID(ctx context.Context, id int64) (*domain.Account, error) {
	locked, err := r.uow.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	if balance, ok := r.uow.balances[id]; ok {
		return &domain.Account{ID: id, Balance: balance}, nil
	}

	r.uow.store.mu.Lock()
	balance := locked.balance
	r.uow.store.mu.Unlock()

	return &domain.Account{ID: id, Balance: balance}, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if _, ok := r.uow.locked[id]; !ok {
		return errors.New("account must be locked before its balance is updated")
	}
	if balance.IsNegative() {
		return fmt.Errorf("account %d balance cannot be negative", id)
	}
	r.uow.balances[id] = balance
	return nil
}

type transactionRepository struct {
	uow *unitOfWork
}

func (r *transactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	for _, tx := range r.uow.inserts {
		if tx.IdempotencyKey == key {
			copied := *tx
			return &copied, nil
		}
	}
	return r.uow.store.GetTransactionByIdempotencyKey(ctx, key)
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	for _, staged := range r.uow.inserts {
		if staged.IdempotencyKey == tx.IdempotencyKey {
			return domain.ErrDuplicateIdempotencyKey
		}
	}
	if err := r.uow.reserve(ctx, tx.IdempotencyKey); err != nil {
		return err
	}

	// ID and CreatedAt are assigned on commit
	r.uow.inserts = append(r.uow.inserts, tx)
	return nil
}
