package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carson-networks/ledger-engine/internal/config"
	"github.com/carson-networks/ledger-engine/internal/ledger"
)

// Storage is the Postgres implementation of the engine's store contract.
// Versioned updates and FOR UPDATE row locks back the engine's optimistic
// safety net; pgx transactions provide the atomic account+transaction unit.
type Storage struct {
	Pool *pgxpool.Pool
}

// Ensure Storage implements the store contract at compile time.
var _ ledger.Store = (*Storage)(nil)

// NewStorage connects to Postgres using the environment configuration.
func NewStorage(ctx context.Context, env *config.Config) (*Storage, error) {
	connStr := "postgres://" + env.PostgresUsername + ":" +
		env.PostgresPassword + "@" + env.PostgresAddress + ":" +
		env.PostgresPort + "/" + env.PostgresDB + "?sslmode=disable"

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("storage: parse config: %w", err)
	}
	// NUMERIC columns scan directly into decimal.Decimal.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return &Storage{Pool: pool}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() {
	s.Pool.Close()
}

const accountColumns = `id, account_number, type, status, balance, credit_limit, currency, version, created_at, updated_at`

// FindAccount retrieves an account by primary key.
func (s *Storage) FindAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// ListTransactions returns up to limit transactions for the account, newest
// first. A non-positive limit falls back to 50.
func (s *Storage) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*ledger.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, account_id, type, amount, balance_after, reference, status, description, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.Reference, &t.Status, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	return result, rows.Err()
}

// Write begins a transaction and returns a writer scoped to it.
func (s *Storage) Write(ctx context.Context) (ledger.StoreWriter, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Writer{tx: tx}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(&a.ID, &a.AccountNumber, &a.Type, &a.Status, &a.Balance,
		&a.CreditLimit, &a.Currency, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
