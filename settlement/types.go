// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package settlement implements the OmniBazaar DEX settlement precompile:
// EIP-712 signed orders matched off-chain by a validator are settled
// atomically between two counterparties, with bitmap nonce replay
// protection, pull-based fee distribution, a commit-reveal front-running
// guard, and bilateral intent escrow.
package settlement

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
)

// ContractAddress is the address of the DEX settlement precompile
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000000b10")

// Fee policy (basis points). Fees come off each party's input leg; the
// counterparty receives amountIn minus the fee.
const (
	BasisPoints    uint64 = 10000
	MakerFeeBps    uint64 = 10   // 0.10%
	TakerFeeBps    uint64 = 20   // 0.20%
	StakingShare   uint64 = 2000 // 20% of each fee
	ValidatorShare uint64 = 1000 // 10% of each fee
	// Governance takes the remainder (~70%) plus all rounding dust, so a
	// validator can never profit from rounding bias.
)

// Commit-reveal window, in blocks relative to the commit block.
const (
	MinCommitBlocks uint64 = 1
	MaxCommitBlocks uint64 = 256
)

// TimelockDelay is how long scheduled critical-parameter changes wait
// before they can be applied.
const TimelockDelay uint64 = 48 * 3600

// SecondsPerDay fixes the UTC-day window for rolling volume limits.
const SecondsPerDay uint64 = 86400

// Gas costs
const (
	GasSettleTrade     uint64 = 60_000
	GasCommitOrder     uint64 = 8_000
	GasRevealOrder     uint64 = 10_000
	GasInvalidateNonce uint64 = 5_000
	GasInvalidateWord  uint64 = 8_000
	GasClaimFees       uint64 = 15_000
	GasLockIntent      uint64 = 25_000
	GasSettleIntent    uint64 = 40_000
	GasCancelIntent    uint64 = 15_000
	GasAdminWrite      uint64 = 10_000
	GasView            uint64 = 500
)

// Errors: typed, named conditions; each aborts the whole operation with
// zero state change.
var (
	// Input validity
	ErrZeroAmount   = errors.New("zero amount")
	ErrZeroAddress  = errors.New("zero address")
	ErrInvalidInput = errors.New("invalid input")
	ErrSameToken    = errors.New("tokenIn and tokenOut must differ")

	// Temporal
	ErrOrderExpired            = errors.New("order expired")
	ErrRevealTooEarly          = errors.New("reveal too early")
	ErrRevealTooLate           = errors.New("reveal too late")
	ErrIntentDeadlineNotPassed = errors.New("intent deadline not passed")

	// Economic mismatch
	ErrOrdersDontMatch       = errors.New("orders don't match")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrSlippageTooHigh       = errors.New("slippage too high")
	ErrTradeSizeExceeded     = errors.New("max trade size exceeded")
	ErrDailyVolumeExceeded   = errors.New("daily volume limit exceeded")

	// Security
	ErrInvalidSignature          = errors.New("invalid signature")
	ErrNonceAlreadyUsed          = errors.New("nonce already used")
	ErrOrderAlreadyFilled        = errors.New("order already filled")
	ErrSelfTradingNotAllowed     = errors.New("self trading not allowed")
	ErrInvalidMatchingValidator  = errors.New("invalid matching validator")
	ErrMatchingValidatorMismatch = errors.New("matching validator mismatch")
	ErrFeeOnTransferNotSupported = errors.New("fee-on-transfer token not supported")
	ErrUnauthorizedIntentSettler = errors.New("unauthorized intent settler")
	ErrOrderNotRevealed          = errors.New("order not revealed")
	ErrReentrantCall             = errors.New("reentrant call")
	ErrUnauthorized              = errors.New("unauthorized")

	// Commit-reveal
	ErrAlreadyCommitted = errors.New("order already committed")
	ErrNoCommitment     = errors.New("no commitment")
	ErrAlreadyRevealed  = errors.New("order already revealed")

	// Intents
	ErrIntentAlreadyExists = errors.New("intent id already used")
	ErrIntentNotLocked     = errors.New("intent not locked")

	// Administrative
	ErrTimelockNotElapsed = errors.New("timelock not elapsed")
	ErrNoPendingChange    = errors.New("no pending change")
	ErrSettlementPaused   = errors.New("settlement paused")
)

// Order is a trader's signed intent to trade. It is constructed and signed
// off-chain; the hash of the typed-data digest identifies it on-chain.
type Order struct {
	Trader            common.Address
	IsBuy             bool
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	AmountOut         *big.Int
	Price             *big.Int // basis points; match-direction policy only
	Deadline          *big.Int // unix seconds; invalid strictly after
	Salt              *big.Int
	MatchingValidator common.Address
	Nonce             uint64
}

// Commitment records a commit-reveal entry for (trader, orderHash).
// Entries are never deleted; they double as an audit trail.
type Commitment struct {
	CommitBlock uint64
	Revealed    bool
	Exists      bool
}

// IntentCollateral is the bilateral escrow record for one intent id.
type IntentCollateral struct {
	Trader       common.Address
	Solver       common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	TraderAmount *big.Int
	SolverAmount *big.Int
	Deadline     uint64
	Locked       bool
	Settled      bool
	Cancelled    bool
	Exists       bool
}

// TradingLimits is the singleton risk configuration. Zero means unlimited
// for the size and volume fields.
type TradingLimits struct {
	MaxTradeSize     *big.Int
	DailyVolumeLimit *big.Int
	MaxSlippageBps   uint64
}

// PendingRecipients is a scheduled fee-recipient rotation.
type PendingRecipients struct {
	Governance  common.Address
	StakingPool common.Address
	ETA         uint64
	Exists      bool
}

// PendingLimits is a scheduled trading-limits change.
type PendingLimits struct {
	Limits TradingLimits
	ETA    uint64
	Exists bool
}
