package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 255

// Amounts finer than four decimal places cannot be represented in the ledger
// without rounding, so they are rejected up front.
const minAmountExponent = -4

// transactionRequest captures the caller-supplied fields checked by the
// validation pipeline before any account state is loaded.
type transactionRequest struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
}

type validationCheck func(req transactionRequest) error

// ValidationPipeline runs ordered, short-circuiting structural checks. The
// first failing check determines the reported reason; the order never changes
// which inputs are rejected.
type ValidationPipeline struct {
	checks []validationCheck
}

// NewValidationPipeline builds the standard pipeline: amount, transaction
// type, description length.
func NewValidationPipeline() *ValidationPipeline {
	return &ValidationPipeline{
		checks: []validationCheck{
			checkAmount,
			checkTransactionType,
			checkDescription,
		},
	}
}

// Run executes the checks in order and returns the first failure.
func (p *ValidationPipeline) Run(req transactionRequest) error {
	for _, check := range p.checks {
		if err := check(req); err != nil {
			return err
		}
	}
	return nil
}

func checkAmount(req transactionRequest) error {
	if !req.Amount.IsPositive() {
		return &InvalidRequestError{Reason: "amount must be a positive decimal"}
	}
	if req.Amount.Exponent() < minAmountExponent {
		return &InvalidRequestError{Reason: "amount has more than four decimal places"}
	}
	return nil
}

func checkTransactionType(req transactionRequest) error {
	if !req.Type.IsValid() {
		return &InvalidRequestError{Reason: fmt.Sprintf("unrecognized transaction type %d", req.Type)}
	}
	return nil
}

func checkDescription(req transactionRequest) error {
	if len(req.Description) > maxDescriptionLength {
		return &InvalidRequestError{Reason: fmt.Sprintf("description exceeds %d characters", maxDescriptionLength)}
	}
	return nil
}
