package model

import "flexPool/internal/fixedpoint"

const (
	EventPoolCreated      = "PoolCreated"
	EventSwapExecuted     = "SwapExecuted"
	EventFlashLoanIssued  = "FlashLoanIssued"
	EventLoanRepaid       = "LoanRepaid"
	EventLiquidityAdded   = "LiquidityAdded"
	EventLiquidityRemoved = "LiquidityRemoved"
	EventRegistrySynced   = "RegistrySynced"
)

// PoolCreatedEvent is emitted once per pool.
type PoolCreatedEvent struct {
	PoolAddress      PoolID             `json:"pool_address"`
	LPAddress        Asset              `json:"lp_address"`
	XAddress         Asset              `json:"x_address"`
	YAddress         Asset              `json:"y_address"`
	XShare           fixedpoint.Decimal `json:"x_share"`
	InputFeeRate     fixedpoint.Decimal `json:"input_fee_rate"`
	FlashLoanFeeRate fixedpoint.Decimal `json:"flash_loan_fee_rate"`
	Hooks            []string           `json:"hooks"`
}

// SwapExecutedEvent carries the amounts of one swap.
type SwapExecutedEvent struct {
	InputAddress       Asset                     `json:"input_address"`
	InputGrossAmount   fixedpoint.Decimal        `json:"input_gross_amount"`
	InputAmount        fixedpoint.Decimal        `json:"input_amount"`
	OutputAddress      Asset                     `json:"output_address"`
	OutputAmount       fixedpoint.Decimal        `json:"output_amount"`
	OutputReturnAmount fixedpoint.Decimal        `json:"output_return_amount"`
	InputFeeLP         fixedpoint.Decimal        `json:"input_fee_lp"`
	InputFeeProtocol   fixedpoint.Decimal        `json:"input_fee_protocol"`
	PriceSqrt          fixedpoint.PreciseDecimal `json:"price_sqrt"`
}

// FlashLoanIssuedEvent is emitted when a loan ticket is minted.
type FlashLoanIssuedEvent struct {
	Address   Asset              `json:"address"`
	DueAmount fixedpoint.Decimal `json:"due_amount"`
	Fee       fixedpoint.Decimal `json:"fee"`
}

// LoanRepaidEvent is emitted when a loan ticket is burned.
type LoanRepaidEvent struct {
	TicketID  string             `json:"ticket_id"`
	Address   Asset              `json:"address"`
	Repaid    fixedpoint.Decimal `json:"repaid"`
	Fee       fixedpoint.Decimal `json:"fee"`
	Remainder fixedpoint.Decimal `json:"remainder"`
}

type LiquidityAddedEvent struct {
	XAmount   fixedpoint.Decimal `json:"x_amount"`
	YAmount   fixedpoint.Decimal `json:"y_amount"`
	LPMinted  fixedpoint.Decimal `json:"lp_minted"`
	Remainder *Bucket            `json:"remainder,omitempty"`
}

type LiquidityRemovedEvent struct {
	LPBurned fixedpoint.Decimal `json:"lp_burned"`
	XAmount  fixedpoint.Decimal `json:"x_amount"`
	YAmount  fixedpoint.Decimal `json:"y_amount"`
}

// RegistrySyncedEvent records a completed registry round-trip.
type RegistrySyncedEvent struct {
	XProtocolFees    fixedpoint.Decimal `json:"x_protocol_fees"`
	YProtocolFees    fixedpoint.Decimal `json:"y_protocol_fees"`
	FeeProtocolShare fixedpoint.Decimal `json:"fee_protocol_share"`
	NextSyncTime     uint64             `json:"next_sync_time"`
}

// EventRecord wraps an emitted event for the sinks.
type EventRecord struct {
	ID        string      `json:"id"`
	Pool      string      `json:"pool"`
	Seq       uint64      `json:"seq"`
	Timestamp uint64      `json:"timestamp"`
	EventName string      `json:"event_name"`
	Decoded   interface{} `json:"decoded"`
}
