package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-engine/internal/ledger"
)

// Store is an in-memory implementation of the engine's store contract, used
// by tests and local development. Writers stage their changes and apply them
// under one mutex hold at Commit, so the account mutation and its transaction
// rows become observable together, exactly like the Postgres implementation.
type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*ledger.Account
	numbers      map[string]uuid.UUID
	transactions map[uuid.UUID][]*ledger.Transaction
	references   map[string]struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]*ledger.Account),
		numbers:      make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID][]*ledger.Transaction),
		references:   make(map[string]struct{}),
	}
}

// SeedAccount inserts an account directly, bypassing the engine. Intended for
// fixtures that need a status or balance the public operations cannot reach.
func (s *Store) SeedAccount(account *ledger.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *account
	s.accounts[account.ID] = &copied
	s.numbers[account.AccountNumber] = account.ID
}

// FindAccount returns a copy of the account or ledger.ErrNotFound.
func (s *Store) FindAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// ListTransactions returns up to limit transactions for the account, newest
// first. A non-positive limit returns all of them.
func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.transactions[accountID]
	result := make([]*ledger.Transaction, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		copied := *rows[i]
		result = append(result, &copied)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Write opens a staged writer.
func (s *Store) Write(ctx context.Context) (ledger.StoreWriter, error) {
	return &writer{store: s}, nil
}

type accountSave struct {
	account         ledger.Account
	expectedVersion int64
}

type writer struct {
	store          *Store
	done           bool
	accountInserts []ledger.Account
	saves          []accountSave
	deletes        []uuid.UUID
	txInserts      []ledger.Transaction
}

func (w *writer) FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return w.store.FindAccount(ctx, id)
}

func (w *writer) InsertAccount(ctx context.Context, account *ledger.Account) error {
	w.accountInserts = append(w.accountInserts, *account)
	return nil
}

func (w *writer) SaveAccount(ctx context.Context, account *ledger.Account, expectedVersion int64) error {
	account.Version = expectedVersion + 1
	w.saves = append(w.saves, accountSave{account: *account, expectedVersion: expectedVersion})
	return nil
}

func (w *writer) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	w.deletes = append(w.deletes, id)
	return nil
}

func (w *writer) InsertTransaction(ctx context.Context, transaction *ledger.Transaction) error {
	if !transaction.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", transaction.Amount)
	}
	w.txInserts = append(w.txInserts, *transaction)
	return nil
}

// Commit verifies every staged change against current state, then applies
// all of them before releasing the store mutex. Nothing is applied when any
// verification fails.
func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return fmt.Errorf("writer already finished")
	}
	w.done = true

	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, insert := range w.accountInserts {
		if _, exists := s.accounts[insert.ID]; exists {
			return fmt.Errorf("account %s already exists", insert.ID)
		}
		if _, exists := s.numbers[insert.AccountNumber]; exists {
			return fmt.Errorf("account number %s already exists", insert.AccountNumber)
		}
	}
	for _, save := range w.saves {
		current, ok := s.accounts[save.account.ID]
		if !ok {
			return ledger.ErrNotFound
		}
		if current.Version != save.expectedVersion {
			return ledger.ErrConflict
		}
	}
	for _, id := range w.deletes {
		if _, ok := s.accounts[id]; !ok {
			return ledger.ErrNotFound
		}
	}
	for _, insert := range w.txInserts {
		if _, exists := s.references[insert.Reference]; exists {
			return fmt.Errorf("transaction reference %s already exists", insert.Reference)
		}
	}

	for _, insert := range w.accountInserts {
		copied := insert
		s.accounts[insert.ID] = &copied
		s.numbers[insert.AccountNumber] = insert.ID
	}
	for _, save := range w.saves {
		copied := save.account
		s.accounts[save.account.ID] = &copied
	}
	for _, id := range w.deletes {
		account := s.accounts[id]
		delete(s.numbers, account.AccountNumber)
		delete(s.accounts, id)
	}
	for _, insert := range w.txInserts {
		copied := insert
		s.transactions[insert.AccountID] = append(s.transactions[insert.AccountID], &copied)
		s.references[insert.Reference] = struct{}{}
	}
	return nil
}

func (w *writer) Rollback() error {
	w.done = true
	w.accountInserts = nil
	w.saves = nil
	w.deletes = nil
	w.txInserts = nil
	return nil
}
