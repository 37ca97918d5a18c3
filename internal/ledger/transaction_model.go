package ledger

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of monetary operation.
type TransactionType int8

const (
	TransactionTypeDeposit TransactionType = iota
	TransactionTypeWithdrawal
	TransactionTypeTransfer
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "deposit"
	case TransactionTypeWithdrawal:
		return "withdrawal"
	case TransactionTypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// IsValid reports whether t is a recognized transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

// TransactionStatus represents the processing state of a transaction.
type TransactionStatus int8

const (
	TransactionStatusPending TransactionStatus = iota
	TransactionStatusCompleted
	TransactionStatusFailed
	TransactionStatusCancelled
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusPending:
		return "pending"
	case TransactionStatusCompleted:
		return "completed"
	case TransactionStatusFailed:
		return "failed"
	case TransactionStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Transaction represents one persisted monetary operation against an account.
// A transfer produces two transactions, one per leg, linked by a shared
// reference stem. Completed transactions are immutable.
type Transaction struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Type         TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Reference    string
	Status       TransactionStatus
	Description  string
	CreatedAt    time.Time
}
