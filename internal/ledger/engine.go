package ledger

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-engine/internal/locking"
	"github.com/carson-networks/ledger-engine/internal/notify"
)

// Notifier receives domain events after an operation finishes. Delivery is
// best-effort; a committed operation is never rolled back because an event
// could not be delivered.
type Notifier interface {
	Publish(event notify.Event)
}

// LedgerEngine applies monetary operations to accounts. Every mutation runs
// under the account's exclusive lock, is validated by the structural pipeline
// and the (type, account type) policy, is authorized by the account's status
// policy, and persists the balance change together with its transaction row
// as one atomic unit.
type LedgerEngine struct {
	store    Store
	locks    *locking.Controller
	pipeline *ValidationPipeline
	refs     ReferenceGenerator
	notifier Notifier
	logger   *logrus.Logger
}

// NewLedgerEngine creates a LedgerEngine.
func NewLedgerEngine(store Store, locks *locking.Controller, notifier Notifier, logger *logrus.Logger) *LedgerEngine {
	return &LedgerEngine{
		store:    store,
		locks:    locks,
		pipeline: NewValidationPipeline(),
		notifier: notifier,
		logger:   logger,
	}
}

// ApplyTransaction applies a deposit or withdrawal to one account and returns
// the completed transaction. Transfers go through ApplyTransfer. Failures are
// local and never retried: NotFound, AuthorizationDenied, InvalidRequest,
// InvalidAmount, InsufficientFunds, AccountStateError, Conflict, LockTimeout.
func (e *LedgerEngine) ApplyTransaction(ctx context.Context, accountID uuid.UUID, txType TransactionType, amount decimal.Decimal, description string) (*Transaction, error) {
	if txType == TransactionTypeTransfer {
		return nil, &InvalidRequestError{Reason: "transfers must go through ApplyTransfer"}
	}
	if err := e.pipeline.Run(transactionRequest{Type: txType, Amount: amount, Description: description}); err != nil {
		return nil, err
	}

	if err := e.locks.Acquire(ctx, accountID); err != nil {
		return nil, err
	}
	defer e.locks.Release(accountID)

	transaction, err := e.applyLocked(ctx, accountID, txType, amount, description)
	if err != nil {
		e.logger.WithError(err).WithField("accountID", accountID).Info("LedgerEngine.ApplyTransaction.rejected")
		e.publishFailure(accountID, amount, err)
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"accountID": accountID,
		"reference": transaction.Reference,
		"type":      txType.String(),
	}).Info("LedgerEngine.ApplyTransaction.completed")
	e.publishCompleted(transaction)
	return transaction, nil
}

func (e *LedgerEngine) applyLocked(ctx context.Context, accountID uuid.UUID, txType TransactionType, amount decimal.Decimal, description string) (*Transaction, error) {
	writer, err := e.store.Write(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Rollback()
		}
	}()

	account, err := writer.FindAccountForUpdate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := authorize(account, txType); err != nil {
		return nil, err
	}

	policy, err := GetTypePolicy(txType, account.Type)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(account, amount); err != nil {
		return nil, err
	}

	reference, err := e.refs.NewReference()
	if err != nil {
		return nil, err
	}

	expectedVersion := account.Version
	account.Balance = policy.NewBalance(account, amount)
	if err := writer.SaveAccount(ctx, account, expectedVersion); err != nil {
		return nil, err
	}

	transaction, err := newTransaction(account.ID, txType, amount, account.Balance, reference, description)
	if err != nil {
		return nil, err
	}
	if err := writer.InsertTransaction(ctx, transaction); err != nil {
		return nil, err
	}

	if err := writer.Commit(ctx); err != nil {
		return nil, err
	}
	committed = true
	return transaction, nil
}

// ApplyTransfer moves amount from the source account to the target account.
// Both legs commit atomically and share a reference stem; the debit leg is
// returned first. The two locks are acquired in ascending identifier order
// regardless of direction, so concurrent transfers cannot deadlock.
func (e *LedgerEngine) ApplyTransfer(ctx context.Context, sourceID, targetID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, *Transaction, error) {
	if sourceID == targetID {
		return nil, nil, &InvalidRequestError{Reason: "source and target accounts must differ"}
	}
	if err := e.pipeline.Run(transactionRequest{Type: TransactionTypeTransfer, Amount: amount, Description: description}); err != nil {
		return nil, nil, err
	}

	if err := e.locks.AcquirePair(ctx, sourceID, targetID); err != nil {
		return nil, nil, err
	}
	defer e.locks.ReleasePair(sourceID, targetID)

	debit, credit, err := e.transferLocked(ctx, sourceID, targetID, amount, description)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"sourceID": sourceID,
			"targetID": targetID,
		}).Info("LedgerEngine.ApplyTransfer.rejected")
		e.publishFailure(sourceID, amount, err)
		return nil, nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"sourceID":  sourceID,
		"targetID":  targetID,
		"reference": debit.Reference,
	}).Info("LedgerEngine.ApplyTransfer.completed")
	e.publishCompleted(debit)
	e.publishCompleted(credit)
	return debit, credit, nil
}

func (e *LedgerEngine) transferLocked(ctx context.Context, sourceID, targetID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, *Transaction, error) {
	writer, err := e.store.Write(ctx)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Rollback()
		}
	}()

	source, err := writer.FindAccountForUpdate(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	target, err := writer.FindAccountForUpdate(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}

	sourceStatus := GetStatusPolicy(source.Status)
	if !sourceStatus.CanTransferOut() {
		return nil, nil, &AuthorizationDeniedError{Status: source.Status, Reason: sourceStatus.RestrictionReason()}
	}
	targetStatus := GetStatusPolicy(target.Status)
	if !targetStatus.CanTransferIn() {
		return nil, nil, &AuthorizationDeniedError{Status: target.Status, Reason: targetStatus.RestrictionReason()}
	}

	outPolicy, err := GetTypePolicy(TransactionTypeTransfer, source.Type)
	if err != nil {
		return nil, nil, err
	}
	if err := outPolicy.Validate(source, amount); err != nil {
		return nil, nil, err
	}
	inPolicy, err := GetTypePolicy(TransactionTypeDeposit, target.Type)
	if err != nil {
		return nil, nil, err
	}
	if err := inPolicy.Validate(target, amount); err != nil {
		return nil, nil, err
	}

	stem, err := e.refs.NewTransferReference()
	if err != nil {
		return nil, nil, err
	}

	sourceVersion := source.Version
	source.Balance = outPolicy.NewBalance(source, amount)
	if err := writer.SaveAccount(ctx, source, sourceVersion); err != nil {
		return nil, nil, err
	}

	targetVersion := target.Version
	target.Balance = inPolicy.NewBalance(target, amount)
	if err := writer.SaveAccount(ctx, target, targetVersion); err != nil {
		return nil, nil, err
	}

	debit, err := newTransaction(source.ID, TransactionTypeTransfer, amount, source.Balance, stem+transferDebitSuffix, description)
	if err != nil {
		return nil, nil, err
	}
	credit, err := newTransaction(target.ID, TransactionTypeTransfer, amount, target.Balance, stem+transferCreditSuffix, description)
	if err != nil {
		return nil, nil, err
	}
	if err := writer.InsertTransaction(ctx, debit); err != nil {
		return nil, nil, err
	}
	if err := writer.InsertTransaction(ctx, credit); err != nil {
		return nil, nil, err
	}

	if err := writer.Commit(ctx); err != nil {
		return nil, nil, err
	}
	committed = true
	return debit, credit, nil
}

// OpenAccount creates an account in Active status with its opening deposit as
// the starting balance. A positive opening deposit is recorded as the
// account's first transaction, committed atomically with the account row.
func (e *LedgerEngine) OpenAccount(ctx context.Context, accountNumber string, accountType AccountType, currency string, creditLimit, openingDeposit decimal.Decimal) (*Account, error) {
	if accountNumber == "" {
		return nil, &InvalidRequestError{Reason: "account number is required"}
	}
	if openingDeposit.IsNegative() {
		return nil, &InvalidRequestError{Reason: "opening deposit cannot be negative"}
	}
	if creditLimit.IsNegative() {
		return nil, &InvalidRequestError{Reason: "credit limit cannot be negative"}
	}
	if accountType != AccountTypeCredit && !creditLimit.IsZero() {
		return nil, &InvalidRequestError{Reason: "credit limit applies only to credit accounts"}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := &Account{
		ID:            id,
		AccountNumber: accountNumber,
		Type:          accountType,
		Status:        AccountStatusActive,
		Balance:       openingDeposit,
		CreditLimit:   creditLimit,
		Currency:      currency,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	writer, err := e.store.Write(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Rollback()
		}
	}()

	if err := writer.InsertAccount(ctx, account); err != nil {
		return nil, err
	}

	if openingDeposit.IsPositive() {
		reference, err := e.refs.NewReference()
		if err != nil {
			return nil, err
		}
		opening, err := newTransaction(account.ID, TransactionTypeDeposit, openingDeposit, openingDeposit, reference, "opening deposit")
		if err != nil {
			return nil, err
		}
		if err := writer.InsertTransaction(ctx, opening); err != nil {
			return nil, err
		}
	}

	if err := writer.Commit(ctx); err != nil {
		return nil, err
	}
	committed = true

	e.logger.WithFields(logrus.Fields{
		"accountID":     account.ID,
		"accountNumber": accountNumber,
		"type":          accountType.String(),
	}).Info("LedgerEngine.OpenAccount.created")
	return account, nil
}

// UpdateAccountStatus transitions an account to a new status. External
// collaborators such as a dormancy scheduler must use this entry point; it
// holds the same per-account lock as monetary operations, so a status change
// never interleaves with a balance mutation.
func (e *LedgerEngine) UpdateAccountStatus(ctx context.Context, accountID uuid.UUID, next AccountStatus) error {
	if err := e.locks.Acquire(ctx, accountID); err != nil {
		return err
	}
	defer e.locks.Release(accountID)

	writer, err := e.store.Write(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Rollback()
		}
	}()

	account, err := writer.FindAccountForUpdate(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status == next {
		return nil
	}

	policy := GetStatusPolicy(account.Status)
	if !policy.CanTransitionTo(next, account.Balance) {
		return &AuthorizationDeniedError{Status: account.Status, Reason: policy.RestrictionReason()}
	}

	previous := account.Status
	expectedVersion := account.Version
	account.Status = next
	if err := writer.SaveAccount(ctx, account, expectedVersion); err != nil {
		return err
	}
	if err := writer.Commit(ctx); err != nil {
		return err
	}
	committed = true

	e.logger.WithFields(logrus.Fields{
		"accountID": accountID,
		"from":      previous.String(),
		"to":        next.String(),
	}).Info("LedgerEngine.UpdateAccountStatus.transitioned")
	e.notifier.Publish(notify.Event{
		Kind:       notify.KindStatusChanged,
		AccountID:  accountID,
		OldStatus:  previous.String(),
		NewStatus:  next.String(),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// DeleteAccount removes an account. The status policy permits deletion only
// at zero balance, and never for frozen or inactive accounts.
func (e *LedgerEngine) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	if err := e.locks.Acquire(ctx, accountID); err != nil {
		return err
	}
	defer e.locks.Release(accountID)

	writer, err := e.store.Write(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Rollback()
		}
	}()

	account, err := writer.FindAccountForUpdate(ctx, accountID)
	if err != nil {
		return err
	}

	policy := GetStatusPolicy(account.Status)
	if !policy.CanDelete(account.Balance) {
		return &AuthorizationDeniedError{Status: account.Status, Reason: "account must be empty and deletable to be removed"}
	}

	if err := writer.DeleteAccount(ctx, accountID); err != nil {
		return err
	}
	if err := writer.Commit(ctx); err != nil {
		return err
	}
	committed = true

	e.logger.WithField("accountID", accountID).Info("LedgerEngine.DeleteAccount.deleted")
	return nil
}

// GetAccount loads an account for read-only collaborators.
func (e *LedgerEngine) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return e.store.FindAccount(ctx, accountID)
}

// ListTransactions returns the most recent transactions for an account.
func (e *LedgerEngine) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*Transaction, error) {
	return e.store.ListTransactions(ctx, accountID, limit)
}

func authorize(account *Account, txType TransactionType) error {
	policy := GetStatusPolicy(account.Status)
	allowed := false
	switch txType {
	case TransactionTypeDeposit:
		allowed = policy.CanDeposit()
	case TransactionTypeWithdrawal:
		allowed = policy.CanWithdraw()
	}
	if !allowed {
		return &AuthorizationDeniedError{Status: account.Status, Reason: policy.RestrictionReason()}
	}
	return nil
}

func newTransaction(accountID uuid.UUID, txType TransactionType, amount, balanceAfter decimal.Decimal, reference, description string) (*Transaction, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:           id,
		AccountID:    accountID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reference:    reference,
		Status:       TransactionStatusCompleted,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (e *LedgerEngine) publishCompleted(transaction *Transaction) {
	e.notifier.Publish(notify.Event{
		Kind:         notify.KindTransactionCompleted,
		AccountID:    transaction.AccountID,
		Reference:    transaction.Reference,
		Amount:       transaction.Amount,
		BalanceAfter: transaction.BalanceAfter,
		OccurredAt:   time.Now().UTC(),
	})
}

func (e *LedgerEngine) publishFailure(accountID uuid.UUID, amount decimal.Decimal, cause error) {
	e.notifier.Publish(notify.Event{
		Kind:       notify.KindTransactionFailed,
		AccountID:  accountID,
		Amount:     amount,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
}
