package pool

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

// FlashLoan lends amount of asset, floored to its divisibility. The returned
// ticket must be handed to RepayLoan before the transaction ends.
func (tx *Tx) FlashLoan(asset model.Asset, amount fixedpoint.Decimal) (model.Bucket, model.LoanTicket, error) {
	if err := tx.check(); err != nil {
		return model.Bucket{}, model.LoanTicket{}, err
	}
	p := tx.pool
	div, err := p.divisibility(asset)
	if err != nil {
		return model.Bucket{}, model.LoanTicket{}, err
	}
	if amount.IsNegative() {
		return model.Bucket{}, model.LoanTicket{}, model.ErrNegativeAmount.Wrapf("loan %s", amount)
	}

	principal := amount.RoundTo(div, fixedpoint.ToNegativeInfinity)
	fee := principal.Precise().
		Mul(p.flashLoanFeeRate.Precise(), fixedpoint.ToZero).
		RoundTo(div, fixedpoint.ToPositiveInfinity)

	terms := model.FlashLoan{Asset: asset, DueAmount: principal.Add(fee), Fee: fee}
	ticket := model.LoanTicket{ID: uuid.New(), Resource: p.ticketAsset, Terms: terms}
	p.st.loans[ticket.ID] = ticket

	tx.emit(model.EventFlashLoanIssued, model.FlashLoanIssuedEvent{
		Address:   asset,
		DueAmount: terms.DueAmount,
		Fee:       fee,
	})

	loan, err := p.vault.ProtectedWithdraw(asset, principal, fixedpoint.ToZero)
	if err != nil {
		return model.Bucket{}, model.LoanTicket{}, err
	}

	tx.afterCommit(func() { p.metrics.ObserveFlashLoan(p.id.Hex(), asset.Hex(), "issued") })
	p.logger.Debug("flash loan issued",
		zap.String("ticket", ticket.ID.String()),
		zap.String("asset", asset.Hex()),
		zap.Stringer("principal", principal),
		zap.Stringer("fee", fee),
	)
	return loan, ticket, nil
}

// RepayLoan settles ticket from funds and returns what exceeds the due amount.
// The terms recorded at issue time are authoritative.
func (tx *Tx) RepayLoan(funds model.Bucket, ticket model.LoanTicket) (model.Bucket, error) {
	if err := tx.check(); err != nil {
		return model.Bucket{}, err
	}
	p := tx.pool
	if ticket.Resource != p.ticketAsset {
		return model.Bucket{}, ErrUnknownLoanTicket.Wrapf("ticket resource %s", ticket.Resource.Hex())
	}
	issued, ok := p.st.loans[ticket.ID]
	if !ok {
		return model.Bucket{}, ErrUnknownLoanTicket.Wrapf("%s", ticket.ID)
	}
	terms := issued.Terms
	if funds.Asset != terms.Asset {
		return model.Bucket{}, ErrWrongLoanAsset.Wrapf("got %s, loan is %s", funds.Asset.Hex(), terms.Asset.Hex())
	}
	if _, err := p.checkAmount(funds); err != nil {
		return model.Bucket{}, err
	}
	if funds.Amount.LessThan(terms.DueAmount) {
		return model.Bucket{}, ErrInsufficientRepayment.Wrapf("got %s, due %s", funds.Amount, terms.DueAmount)
	}
	_, remainder, err := funds.Take(terms.DueAmount)
	if err != nil {
		return model.Bucket{}, err
	}

	p.accrueProtocolFee(terms.Asset, terms.Fee)
	if err := p.vault.ProtectedDeposit(model.NewBucket(terms.Asset, terms.Principal())); err != nil {
		return model.Bucket{}, err
	}
	delete(p.st.loans, ticket.ID)

	tx.emit(model.EventLoanRepaid, model.LoanRepaidEvent{
		TicketID:  ticket.ID.String(),
		Address:   terms.Asset,
		Repaid:    terms.DueAmount,
		Fee:       terms.Fee,
		Remainder: remainder.Amount,
	})

	tx.afterCommit(func() {
		p.metrics.ObserveFlashLoan(p.id.Hex(), terms.Asset.Hex(), "repaid")
		p.metrics.AddFee(p.id.Hex(), terms.Asset.Hex(), "protocol", terms.Fee.Float64())
	})
	p.logger.Debug("flash loan repaid",
		zap.String("ticket", ticket.ID.String()),
		zap.Stringer("due", terms.DueAmount),
		zap.Stringer("remainder", remainder.Amount),
	)
	return remainder, nil
}
