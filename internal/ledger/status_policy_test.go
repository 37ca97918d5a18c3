package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	zero    = decimal.Zero
	nonZero = decimal.RequireFromString("10.00")
)

// -- Active --

func TestActivePolicy_PermitsAllOperations(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusActive)

	assert.True(t, policy.CanWithdraw())
	assert.True(t, policy.CanDeposit())
	assert.True(t, policy.CanTransferOut())
	assert.True(t, policy.CanTransferIn())
	assert.True(t, policy.CanUpdate())
}

func TestActivePolicy_DeleteRequiresZeroBalance(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusActive)

	assert.True(t, policy.CanDelete(zero))
	assert.False(t, policy.CanDelete(nonZero))
}

func TestActivePolicy_Transitions(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusActive)

	assert.True(t, policy.CanTransitionTo(AccountStatusFrozen, nonZero))
	assert.True(t, policy.CanTransitionTo(AccountStatusClosed, nonZero))
	assert.False(t, policy.CanTransitionTo(AccountStatusInactive, zero))
	assert.False(t, policy.CanTransitionTo(AccountStatusActive, zero))
}

// -- Frozen --

func TestFrozenPolicy_AllowsIncomingMoneyOnly(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusFrozen)

	assert.True(t, policy.CanDeposit(), "deposits recover debt on frozen accounts")
	assert.True(t, policy.CanTransferIn())
	assert.False(t, policy.CanWithdraw())
	assert.False(t, policy.CanTransferOut())
	assert.False(t, policy.CanUpdate())
	assert.False(t, policy.CanDelete(zero))
}

func TestFrozenPolicy_Transitions(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusFrozen)

	assert.True(t, policy.CanTransitionTo(AccountStatusActive, nonZero))
	assert.True(t, policy.CanTransitionTo(AccountStatusClosed, nonZero))
	assert.False(t, policy.CanTransitionTo(AccountStatusInactive, zero))
}

// -- Closed --

func TestClosedPolicy_IsTerminal(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusClosed)

	assert.False(t, policy.CanDeposit())
	assert.False(t, policy.CanWithdraw())
	assert.False(t, policy.CanTransferOut())
	assert.False(t, policy.CanTransferIn())
	assert.False(t, policy.CanUpdate())

	assert.False(t, policy.CanTransitionTo(AccountStatusActive, zero))
	assert.False(t, policy.CanTransitionTo(AccountStatusFrozen, zero))
	assert.False(t, policy.CanTransitionTo(AccountStatusInactive, zero))
}

func TestClosedPolicy_DeleteOnlyAtZeroBalance(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusClosed)

	assert.True(t, policy.CanDelete(zero))
	assert.False(t, policy.CanDelete(nonZero))
}

// -- Inactive --

func TestInactivePolicy_BlocksMonetaryOperations(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusInactive)

	assert.False(t, policy.CanDeposit())
	assert.False(t, policy.CanWithdraw())
	assert.False(t, policy.CanTransferOut())
	assert.False(t, policy.CanTransferIn())
	assert.False(t, policy.CanDelete(zero))
}

func TestInactivePolicy_Transitions(t *testing.T) {
	policy := GetStatusPolicy(AccountStatusInactive)

	assert.True(t, policy.CanTransitionTo(AccountStatusActive, nonZero))
	assert.True(t, policy.CanTransitionTo(AccountStatusClosed, zero), "closing an empty dormant account is allowed")
	assert.False(t, policy.CanTransitionTo(AccountStatusClosed, nonZero), "dormant accounts holding money cannot be closed")
	assert.False(t, policy.CanTransitionTo(AccountStatusFrozen, zero))
}

func TestGetStatusPolicy_UnknownStatusIsMostRestrictive(t *testing.T) {
	policy := GetStatusPolicy(AccountStatus(42))

	assert.False(t, policy.CanDeposit())
	assert.False(t, policy.CanWithdraw())
}
