package ledger

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of account.
type AccountType int8

const (
	AccountTypeSavings AccountType = iota
	AccountTypeChecking
	AccountTypeCredit
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeSavings:
		return "savings"
	case AccountTypeChecking:
		return "checking"
	case AccountTypeCredit:
		return "credit"
	default:
		return "unknown"
	}
}

// AccountStatus represents the lifecycle state of an account.
type AccountStatus int8

const (
	AccountStatusActive AccountStatus = iota
	AccountStatusFrozen
	AccountStatusClosed
	AccountStatusInactive
)

func (s AccountStatus) String() string {
	switch s {
	case AccountStatusActive:
		return "active"
	case AccountStatusFrozen:
		return "frozen"
	case AccountStatusClosed:
		return "closed"
	case AccountStatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Account represents an account in the ledger.
// Version strictly increases with every successful mutation; the store rejects
// a write whose expected version no longer matches the row.
type Account struct {
	ID            uuid.UUID
	AccountNumber string
	Type          AccountType
	Status        AccountStatus
	Balance       decimal.Decimal
	CreditLimit   decimal.Decimal
	Currency      string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCredit reports whether the account draws on a credit line.
func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// AvailableCredit is the remaining headroom on a credit account.
func (a *Account) AvailableCredit() decimal.Decimal {
	return a.CreditLimit.Add(a.Balance)
}
