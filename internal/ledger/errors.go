package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-engine/internal/locking"
)

// Sentinel errors for failures that carry no extra data. Callers match them
// with errors.Is.
var (
	// ErrNotFound indicates the referenced account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrConflict indicates a version mismatch on persist. The caller may
	// retry the whole operation.
	ErrConflict = errors.New("account version conflict")

	// ErrLockTimeout indicates account lock acquisition exceeded its bound.
	ErrLockTimeout = locking.ErrAcquireTimeout
)

// AuthorizationDeniedError indicates the account's status does not permit
// the requested operation.
type AuthorizationDeniedError struct {
	Status AccountStatus
	Reason string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("authorization denied: %s", e.Reason)
}

// InvalidRequestError indicates a structurally malformed request, rejected
// before any account state is consulted.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// InvalidAmountError indicates the amount violates a type policy rule such
// as a per-operation ceiling.
type InvalidAmountError struct {
	Amount decimal.Decimal
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount, e.Reason)
}

// InsufficientFundsError indicates the account cannot cover the requested
// amount. Available is the balance for non-credit accounts and the remaining
// credit headroom for credit accounts.
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s", e.Requested, e.Available)
}

// AccountStateError indicates the account's type or state is incompatible
// with the requested policy, e.g. a credit withdrawal on a non-credit account.
type AccountStateError struct {
	Reason string
}

func (e *AccountStateError) Error() string {
	return fmt.Sprintf("account state error: %s", e.Reason)
}
