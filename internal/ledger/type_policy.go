package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Per-operation ceilings. Credit withdrawals have no ceiling; the credit
// limit is the binding constraint.
var (
	depositCeiling    = decimal.NewFromInt(1_000_000)
	withdrawalCeiling = decimal.NewFromInt(50_000)
)

// TypePolicy validates an amount against an account and computes the balance
// that results from applying it. Policies are stateless; dispatch is the pure
// function GetTypePolicy.
type TypePolicy interface {
	Validate(account *Account, amount decimal.Decimal) error
	NewBalance(account *Account, amount decimal.Decimal) decimal.Decimal
	Describe(amount decimal.Decimal) string
}

// GetTypePolicy selects the policy for a (transaction type, account type)
// pair. A withdrawal against a credit account always routes to the credit
// variant. A transfer routes to the policy governing its outgoing leg; the
// incoming leg is always deposit arithmetic.
func GetTypePolicy(txType TransactionType, accountType AccountType) (TypePolicy, error) {
	switch txType {
	case TransactionTypeDeposit:
		return depositPolicy{}, nil
	case TransactionTypeWithdrawal, TransactionTypeTransfer:
		if accountType == AccountTypeCredit {
			return creditWithdrawalPolicy{}, nil
		}
		return withdrawalPolicy{}, nil
	default:
		return nil, &InvalidRequestError{Reason: fmt.Sprintf("unrecognized transaction type %d", txType)}
	}
}

type depositPolicy struct{}

func (depositPolicy) Validate(account *Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &InvalidAmountError{Amount: amount, Reason: "deposit amount must be positive"}
	}
	if amount.GreaterThan(depositCeiling) {
		return &InvalidAmountError{Amount: amount, Reason: fmt.Sprintf("deposit exceeds ceiling of %s", depositCeiling)}
	}
	return nil
}

func (depositPolicy) NewBalance(account *Account, amount decimal.Decimal) decimal.Decimal {
	return account.Balance.Add(amount)
}

func (depositPolicy) Describe(amount decimal.Decimal) string {
	return fmt.Sprintf("deposit of %s", amount)
}

type withdrawalPolicy struct{}

func (withdrawalPolicy) Validate(account *Account, amount decimal.Decimal) error {
	if account.IsCredit() {
		return &AccountStateError{Reason: "plain withdrawal does not apply to credit accounts"}
	}
	if !amount.IsPositive() {
		return &InvalidAmountError{Amount: amount, Reason: "withdrawal amount must be positive"}
	}
	if amount.GreaterThan(withdrawalCeiling) {
		return &InvalidAmountError{Amount: amount, Reason: fmt.Sprintf("withdrawal exceeds ceiling of %s", withdrawalCeiling)}
	}
	if account.Balance.Sub(amount).IsNegative() {
		return &InsufficientFundsError{Requested: amount, Available: account.Balance}
	}
	return nil
}

func (withdrawalPolicy) NewBalance(account *Account, amount decimal.Decimal) decimal.Decimal {
	return account.Balance.Sub(amount)
}

func (withdrawalPolicy) Describe(amount decimal.Decimal) string {
	return fmt.Sprintf("withdrawal of %s", amount)
}

// creditWithdrawalPolicy lets a credit account draw below zero as long as the
// resulting debt stays within the credit limit.
type creditWithdrawalPolicy struct{}

func (creditWithdrawalPolicy) Validate(account *Account, amount decimal.Decimal) error {
	if !account.IsCredit() {
		return &AccountStateError{Reason: "credit withdrawal applies only to credit accounts"}
	}
	if !amount.IsPositive() {
		return &InvalidAmountError{Amount: amount, Reason: "withdrawal amount must be positive"}
	}
	newBalance := account.Balance.Sub(amount)
	if newBalance.Neg().GreaterThan(account.CreditLimit) {
		return &InsufficientFundsError{Requested: amount, Available: account.AvailableCredit()}
	}
	return nil
}

func (creditWithdrawalPolicy) NewBalance(account *Account, amount decimal.Decimal) decimal.Decimal {
	return account.Balance.Sub(amount)
}

func (creditWithdrawalPolicy) Describe(amount decimal.Decimal) string {
	return fmt.Sprintf("credit withdrawal of %s", amount)
}
