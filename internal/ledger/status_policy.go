package ledger

import "github.com/shopspring/decimal"

// StatusPolicy is the capability gate for an account status. Every monetary
// operation and every status transition consults the policy of the account's
// current status before touching the balance.
type StatusPolicy interface {
	CanWithdraw() bool
	CanDeposit() bool
	CanTransferOut() bool
	CanTransferIn() bool
	CanUpdate() bool
	CanDelete(balance decimal.Decimal) bool
	CanTransitionTo(next AccountStatus, balance decimal.Decimal) bool
	RestrictionReason() string
}

// GetStatusPolicy returns the policy for the given status. The status set is
// closed; an unrecognized value gets the most restrictive policy.
func GetStatusPolicy(status AccountStatus) StatusPolicy {
	switch status {
	case AccountStatusActive:
		return activePolicy{}
	case AccountStatusFrozen:
		return frozenPolicy{}
	case AccountStatusClosed:
		return closedPolicy{}
	case AccountStatusInactive:
		return inactivePolicy{}
	default:
		return closedPolicy{}
	}
}

// activePolicy permits everything; delete still requires a zero balance.
type activePolicy struct{}

func (activePolicy) CanWithdraw() bool    { return true }
func (activePolicy) CanDeposit() bool     { return true }
func (activePolicy) CanTransferOut() bool { return true }
func (activePolicy) CanTransferIn() bool  { return true }
func (activePolicy) CanUpdate() bool      { return true }

func (activePolicy) CanDelete(balance decimal.Decimal) bool {
	return balance.IsZero()
}

func (activePolicy) CanTransitionTo(next AccountStatus, _ decimal.Decimal) bool {
	return next == AccountStatusFrozen || next == AccountStatusClosed
}

func (activePolicy) RestrictionReason() string {
	return "account is active"
}

// frozenPolicy still accepts incoming money so debt can be recovered, but
// blocks anything that moves money out.
type frozenPolicy struct{}

func (frozenPolicy) CanWithdraw() bool    { return false }
func (frozenPolicy) CanDeposit() bool     { return true }
func (frozenPolicy) CanTransferOut() bool { return false }
func (frozenPolicy) CanTransferIn() bool  { return true }
func (frozenPolicy) CanUpdate() bool      { return false }

func (frozenPolicy) CanDelete(balance decimal.Decimal) bool { return false }

func (frozenPolicy) CanTransitionTo(next AccountStatus, _ decimal.Decimal) bool {
	return next == AccountStatusActive || next == AccountStatusClosed
}

func (frozenPolicy) RestrictionReason() string {
	return "account is frozen: only deposits and incoming transfers are permitted"
}

// closedPolicy is terminal. Only reading the balance and deleting the empty
// account remain possible.
type closedPolicy struct{}

func (closedPolicy) CanWithdraw() bool    { return false }
func (closedPolicy) CanDeposit() bool     { return false }
func (closedPolicy) CanTransferOut() bool { return false }
func (closedPolicy) CanTransferIn() bool  { return false }
func (closedPolicy) CanUpdate() bool      { return false }

func (closedPolicy) CanDelete(balance decimal.Decimal) bool {
	return balance.IsZero()
}

func (closedPolicy) CanTransitionTo(next AccountStatus, _ decimal.Decimal) bool { return false }

func (closedPolicy) RestrictionReason() string {
	return "account is closed"
}

// inactivePolicy blocks all monetary operations until the account is
// reactivated.
type inactivePolicy struct{}

func (inactivePolicy) CanWithdraw() bool    { return false }
func (inactivePolicy) CanDeposit() bool     { return false }
func (inactivePolicy) CanTransferOut() bool { return false }
func (inactivePolicy) CanTransferIn() bool  { return false }
func (inactivePolicy) CanUpdate() bool      { return false }

func (inactivePolicy) CanDelete(balance decimal.Decimal) bool { return false }

func (inactivePolicy) CanTransitionTo(next AccountStatus, balance decimal.Decimal) bool {
	if next == AccountStatusClosed {
		return balance.IsZero()
	}
	return next == AccountStatusActive
}

func (inactivePolicy) RestrictionReason() string {
	return "account is inactive: reactivate it before transacting"
}
