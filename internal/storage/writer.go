package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/carson-networks/ledger-engine/internal/ledger"
)

// Writer scopes all mutations of one operation to a single pgx transaction.
type Writer struct {
	tx pgx.Tx
}

var _ ledger.StoreWriter = (*Writer)(nil)

// FindAccountForUpdate loads the account and takes its row lock for the
// duration of the transaction.
func (w *Writer) FindAccountForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	row := w.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

// InsertAccount creates a new account row.
func (w *Writer) InsertAccount(ctx context.Context, account *ledger.Account) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO accounts (id, account_number, type, status, balance, credit_limit, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID, account.AccountNumber, account.Type, account.Status,
		account.Balance, account.CreditLimit, account.Currency, account.Version,
		account.CreatedAt, account.UpdatedAt)
	return err
}

// SaveAccount persists the account's balance and status, guarded by the
// version read at load time. Zero rows updated means another write got there
// first, which surfaces as ledger.ErrConflict.
func (w *Writer) SaveAccount(ctx context.Context, account *ledger.Account, expectedVersion int64) error {
	tag, err := w.tx.Exec(ctx, `
		UPDATE accounts
		SET balance = $1, status = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5`,
		account.Balance, account.Status, time.Now().UTC(), account.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrConflict
	}
	account.Version = expectedVersion + 1
	return nil
}

// DeleteAccount removes the account row.
func (w *Writer) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := w.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// InsertTransaction creates a transaction row. The reference column carries a
// unique index, the final backstop for reference uniqueness.
func (w *Writer) InsertTransaction(ctx context.Context, transaction *ledger.Transaction) error {
	_, err := w.tx.Exec(ctx, `
		INSERT INTO transactions (id, account_id, type, amount, balance_after, reference, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		transaction.ID, transaction.AccountID, transaction.Type, transaction.Amount,
		transaction.BalanceAfter, transaction.Reference, transaction.Status,
		transaction.Description, transaction.CreatedAt)
	return err
}

// Commit makes every write of this unit observable at once.
func (w *Writer) Commit(ctx context.Context) error {
	return w.tx.Commit(ctx)
}

// Rollback discards the unit. Safe to call after Commit.
func (w *Writer) Rollback() error {
	err := w.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
