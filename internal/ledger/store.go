package ledger

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// Store is the read side of account and transaction persistence.
// This abstraction allows swapping the implementation (Postgres, in-memory)
// without changing the engine.
//
//go:generate mockery --name Store --output mock_Store.go
type Store interface {
	FindAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*Transaction, error)
	Write(ctx context.Context) (StoreWriter, error)
}

// StoreWriter is one atomic unit of persistence. Everything written between
// Write and Commit becomes observable together or not at all; the balance
// mutation and its transaction row always commit as a pair.
//
// SaveAccount is version-guarded: it persists the account, bumps Version to
// expectedVersion+1, and fails with ErrConflict when the stored version no
// longer matches expectedVersion.
//
//go:generate mockery --name StoreWriter --output mock_StoreWriter.go
type StoreWriter interface {
	FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	InsertAccount(ctx context.Context, account *Account) error
	SaveAccount(ctx context.Context, account *Account, expectedVersion int64) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	InsertTransaction(ctx context.Context, transaction *Transaction) error
	Commit(ctx context.Context) error
	Rollback() error
}
