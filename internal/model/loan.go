package model

import (
	"github.com/google/uuid"

	"flexPool/internal/fixedpoint"
)

// FlashLoan holds the repayment terms of an outstanding loan.
type FlashLoan struct {
	Asset     Asset              `json:"asset"`
	DueAmount fixedpoint.Decimal `json:"due_amount"`
	Fee       fixedpoint.Decimal `json:"fee"`
}

// Principal is the borrowed amount without the fee.
func (f FlashLoan) Principal() fixedpoint.Decimal {
	return f.DueAmount.Sub(f.Fee)
}

// LoanTicket is the single-use obligation minted with every flash loan.
// Resource is the ticket resource of the issuing pool.
type LoanTicket struct {
	ID       uuid.UUID `json:"id"`
	Resource Asset     `json:"resource"`
	Terms    FlashLoan `json:"terms"`
}
