package ledger

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func checkingAccount(balance string) *Account {
	return &Account{
		ID:      uuid.Must(uuid.NewV4()),
		Type:    AccountTypeChecking,
		Status:  AccountStatusActive,
		Balance: decimal.RequireFromString(balance),
	}
}

func creditAccount(balance, limit string) *Account {
	return &Account{
		ID:          uuid.Must(uuid.NewV4()),
		Type:        AccountTypeCredit,
		Status:      AccountStatusActive,
		Balance:     decimal.RequireFromString(balance),
		CreditLimit: decimal.RequireFromString(limit),
	}
}

// -- dispatch --

func TestGetTypePolicy_DepositForAllAccountTypes(t *testing.T) {
	for _, accountType := range []AccountType{AccountTypeSavings, AccountTypeChecking, AccountTypeCredit} {
		policy, err := GetTypePolicy(TransactionTypeDeposit, accountType)
		assert.NoError(t, err)
		assert.IsType(t, depositPolicy{}, policy)
	}
}

func TestGetTypePolicy_WithdrawalOnCreditRoutesToCreditVariant(t *testing.T) {
	policy, err := GetTypePolicy(TransactionTypeWithdrawal, AccountTypeCredit)

	assert.NoError(t, err)
	assert.IsType(t, creditWithdrawalPolicy{}, policy)
}

func TestGetTypePolicy_WithdrawalOnNonCredit(t *testing.T) {
	policy, err := GetTypePolicy(TransactionTypeWithdrawal, AccountTypeChecking)

	assert.NoError(t, err)
	assert.IsType(t, withdrawalPolicy{}, policy)
}

func TestGetTypePolicy_TransferRoutesToOutgoingLegPolicy(t *testing.T) {
	policy, err := GetTypePolicy(TransactionTypeTransfer, AccountTypeSavings)
	assert.NoError(t, err)
	assert.IsType(t, withdrawalPolicy{}, policy)

	policy, err = GetTypePolicy(TransactionTypeTransfer, AccountTypeCredit)
	assert.NoError(t, err)
	assert.IsType(t, creditWithdrawalPolicy{}, policy)
}

func TestGetTypePolicy_UnknownType(t *testing.T) {
	_, err := GetTypePolicy(TransactionType(99), AccountTypeChecking)

	var invalid *InvalidRequestError
	assert.ErrorAs(t, err, &invalid)
}

// -- deposit --

func TestDepositPolicy_ComputesNewBalance(t *testing.T) {
	account := checkingAccount("100.00")
	amount := decimal.RequireFromString("42.50")
	policy := depositPolicy{}

	assert.NoError(t, policy.Validate(account, amount))
	assert.True(t, policy.NewBalance(account, amount).Equal(decimal.RequireFromString("142.50")))
}

func TestDepositPolicy_RejectsAboveCeiling(t *testing.T) {
	account := checkingAccount("0")
	policy := depositPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("1000000.01"))

	var invalid *InvalidAmountError
	assert.ErrorAs(t, err, &invalid)
}

func TestDepositPolicy_AcceptsExactCeiling(t *testing.T) {
	account := checkingAccount("0")
	policy := depositPolicy{}

	assert.NoError(t, policy.Validate(account, decimal.RequireFromString("1000000")))
}

func TestDepositPolicy_RejectsNonPositiveAmount(t *testing.T) {
	account := checkingAccount("0")
	policy := depositPolicy{}

	var invalid *InvalidAmountError
	assert.ErrorAs(t, policy.Validate(account, decimal.Zero), &invalid)
	assert.ErrorAs(t, policy.Validate(account, decimal.RequireFromString("-5")), &invalid)
}

// -- withdrawal --

func TestWithdrawalPolicy_InsufficientFundsReportsBalance(t *testing.T) {
	account := checkingAccount("1000.00")
	policy := withdrawalPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("1500.00"))

	var insufficient *InsufficientFundsError
	assert.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(decimal.RequireFromString("1000.00")))
}

func TestWithdrawalPolicy_ExactBalanceSucceeds(t *testing.T) {
	account := checkingAccount("1000.00")
	amount := decimal.RequireFromString("1000.00")
	policy := withdrawalPolicy{}

	assert.NoError(t, policy.Validate(account, amount))
	assert.True(t, policy.NewBalance(account, amount).IsZero())
}

func TestWithdrawalPolicy_RejectsAboveCeiling(t *testing.T) {
	account := checkingAccount("100000.00")
	policy := withdrawalPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("50000.01"))

	var invalid *InvalidAmountError
	assert.ErrorAs(t, err, &invalid)
}

func TestWithdrawalPolicy_RejectsCreditAccount(t *testing.T) {
	account := creditAccount("0", "1000.00")
	policy := withdrawalPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("10.00"))

	var state *AccountStateError
	assert.ErrorAs(t, err, &state)
}

// -- credit withdrawal --

func TestCreditWithdrawalPolicy_DrawsToFullLimit(t *testing.T) {
	account := creditAccount("0", "1000.00")
	amount := decimal.RequireFromString("1000.00")
	policy := creditWithdrawalPolicy{}

	assert.NoError(t, policy.Validate(account, amount))
	assert.True(t, policy.NewBalance(account, amount).Equal(decimal.RequireFromString("-1000.00")))
}

func TestCreditWithdrawalPolicy_OneUnitBeyondLimitFails(t *testing.T) {
	account := creditAccount("-1000.00", "1000.00")
	policy := creditWithdrawalPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("0.01"))

	var insufficient *InsufficientFundsError
	assert.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.IsZero(), "available credit is creditLimit + balance")
}

func TestCreditWithdrawalPolicy_ReportsAvailableCredit(t *testing.T) {
	account := creditAccount("-400.00", "1000.00")
	policy := creditWithdrawalPolicy{}

	err := policy.Validate(account, decimal.RequireFromString("700.00"))

	var insufficient *InsufficientFundsError
	assert.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(decimal.RequireFromString("600.00")))
}

func TestCreditWithdrawalPolicy_RejectsNonCreditAccount(t *testing.T) {
	account := checkingAccount("500.00")
	policy := creditWithdrawalPolicy{}

	var state *AccountStateError
	assert.ErrorAs(t, policy.Validate(account, decimal.RequireFromString("10.00")), &state)
}
