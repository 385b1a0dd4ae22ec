// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/merkle"
)

// SettlementContract implements the DEX settlement precompile. The struct
// itself holds no trade state (everything mutable lives in the StateDB),
// only the pluggable collaborators and the logger.
type SettlementContract struct {
	tokens     TokenBackend
	validators ValidatorRegistry
	oracle     ReputationOracle
	log        log.Logger
}

// NewSettlementContract returns a settlement contract backed by the token
// ledger precompile and no validator registry check.
func NewSettlementContract() *SettlementContract {
	return &SettlementContract{
		tokens: ledgerBackend{},
		log:    log.NewTestLogger(log.InfoLevel),
	}
}

// SetTokenBackend replaces the token backend. Used by tests to exercise
// misbehaving tokens.
func (c *SettlementContract) SetTokenBackend(backend TokenBackend) {
	c.tokens = backend
}

// SetValidatorRegistry wires the external validator registry. A nil
// registry disables the active-validator check.
func (c *SettlementContract) SetValidatorRegistry(registry ValidatorRegistry) {
	c.validators = registry
}

// SetReputationOracle wires the external reputation oracle that publishes
// volume-aggregate merkle roots.
func (c *SettlementContract) SetReputationOracle(oracle ReputationOracle) {
	c.oracle = oracle
}

// VerifyVolumeAggregate reports whether [leaf] is a member of the oracle's
// current aggregate root. Without a wired oracle, or before the first root
// is published, no aggregate is verifiable.
func (c *SettlementContract) VerifyVolumeAggregate(state contract.StateDB, leaf common.Hash, proof []common.Hash) bool {
	if c.oracle == nil {
		return false
	}
	root := c.oracle.CurrentRoot(state)
	if root == (common.Hash{}) {
		return false
	}
	return merkle.VerifyProof(root, leaf, proof)
}

// SettleTrade atomically exchanges the two signed orders' legs. Every
// precondition is checked before any value moves, and any failure reverts
// the whole call to the pre-call state.
func (c *SettlementContract) SettleTrade(
	accessibleState contract.AccessibleState,
	settler common.Address,
	maker, taker *Order,
	makerSig, takerSig []byte,
) error {
	state := accessibleState.GetStateDB()

	if isPaused(state) {
		return ErrSettlementPaused
	}

	return c.guarded(state, func() error {
		return c.settleTrade(accessibleState, settler, maker, taker, makerSig, takerSig)
	})
}

// guarded runs [fn] holding the exclusive in-progress flag, reverting every
// side effect (including the flag) if it fails. The flag is the contract's
// defense against a called token re-entering a protected operation.
func (c *SettlementContract) guarded(state contract.StateDB, fn func() error) error {
	guardSlot := configSlot(cfgGuard)
	if contract.LoadBool(state, ContractAddress, guardSlot) {
		return ErrReentrantCall
	}

	snapshot := state.Snapshot()
	contract.StoreBool(state, ContractAddress, guardSlot, true)

	if err := fn(); err != nil {
		state.RevertToSnapshot(snapshot)
		return err
	}

	contract.StoreBool(state, ContractAddress, guardSlot, false)
	return nil
}

func (c *SettlementContract) settleTrade(
	accessibleState contract.AccessibleState,
	settler common.Address,
	maker, taker *Order,
	makerSig, takerSig []byte,
) error {
	state := accessibleState.GetStateDB()
	now := accessibleState.GetBlockContext().Timestamp()

	// Input validity
	if err := validateOrderFields(maker); err != nil {
		return err
	}
	if err := validateOrderFields(taker); err != nil {
		return err
	}
	if maker.Trader == taker.Trader {
		return ErrSelfTradingNotAllowed
	}
	if maker.MatchingValidator == (common.Address{}) || taker.MatchingValidator == (common.Address{}) {
		return ErrInvalidMatchingValidator
	}
	if maker.MatchingValidator != taker.MatchingValidator {
		return ErrMatchingValidatorMismatch
	}
	if c.validators != nil && !c.validators.IsActiveValidator(state, maker.MatchingValidator) {
		return ErrInvalidMatchingValidator
	}

	// Temporal
	if expired(maker, now) || expired(taker, now) {
		return ErrOrderExpired
	}

	// Signatures
	chainID := getChainID(state)
	if err := VerifyOrderSignature(maker, makerSig, chainID, ContractAddress); err != nil {
		return err
	}
	if err := VerifyOrderSignature(taker, takerSig, chainID, ContractAddress); err != nil {
		return err
	}

	makerHash := maker.Digest(chainID, ContractAddress)
	takerHash := taker.Digest(chainID, ContractAddress)

	// Replay protection
	if isFilled(state, makerHash) || isFilled(state, takerHash) {
		return ErrOrderAlreadyFilled
	}
	if IsNonceUsed(state, maker.Trader, maker.Nonce) || IsNonceUsed(state, taker.Trader, taker.Nonce) {
		return ErrNonceAlreadyUsed
	}

	// Commit-reveal wiring is optional; when enabled both orders must have
	// been revealed before settlement.
	if requireCommitReveal(state) {
		if !GetCommitment(state, maker.Trader, makerHash).Revealed ||
			!GetCommitment(state, taker.Trader, takerHash).Revealed {
			return ErrOrderNotRevealed
		}
	}

	// Match
	if err := ValidateMatch(maker, taker); err != nil {
		return err
	}

	// Limits
	limits := getLimits(state)
	if limits.MaxTradeSize.Sign() > 0 {
		if maker.AmountIn.Cmp(limits.MaxTradeSize) > 0 || taker.AmountIn.Cmp(limits.MaxTradeSize) > 0 {
			return ErrTradeSizeExceeded
		}
	}
	day := dayIndex(now)
	if limits.DailyVolumeLimit.Sign() > 0 {
		makerUsed := new(big.Int).Add(getDailyVolume(state, maker.Trader, day), maker.AmountIn)
		takerUsed := new(big.Int).Add(getDailyVolume(state, taker.Trader, day), taker.AmountIn)
		if makerUsed.Cmp(limits.DailyVolumeLimit) > 0 || takerUsed.Cmp(limits.DailyVolumeLimit) > 0 {
			return ErrDailyVolumeExceeded
		}
	}

	// Slippage: the taker's realized input must not be materially under
	// the maker's advertised terms.
	if limits.MaxSlippageBps > 0 {
		minTakerIn := new(big.Int).Mul(maker.AmountOut, new(big.Int).SetUint64(BasisPoints-limits.MaxSlippageBps))
		minTakerIn.Div(minTakerIn, new(big.Int).SetUint64(BasisPoints))
		if taker.AmountIn.Cmp(minTakerIn) < 0 {
			return ErrSlippageTooHigh
		}
	}

	// Fees come off each party's input leg: funds already proven available
	// by the balance check below, so fee collection cannot be evaded by
	// underfunding the output.
	makerFee := feeFor(maker.AmountIn, MakerFeeBps)
	takerFee := feeFor(taker.AmountIn, TakerFeeBps)

	// Balance and allowance sufficiency for each trader's input token.
	if err := c.checkFunding(state, maker); err != nil {
		return err
	}
	if err := c.checkFunding(state, taker); err != nil {
		return err
	}

	// Execute transfers. Each is followed by a balance-delta re-read; a
	// token that silently deducts extra on transfer corrupts fixed-amount
	// accounting and is rejected outright.
	makerNet := new(big.Int).Sub(maker.AmountIn, makerFee)
	takerNet := new(big.Int).Sub(taker.AmountIn, takerFee)

	if err := c.transferChecked(state, maker.TokenIn, maker.Trader, taker.Trader, makerNet); err != nil {
		return err
	}
	if err := c.transferChecked(state, taker.TokenIn, taker.Trader, maker.Trader, takerNet); err != nil {
		return err
	}
	if err := c.transferChecked(state, maker.TokenIn, maker.Trader, ContractAddress, makerFee); err != nil {
		return err
	}
	if err := c.transferChecked(state, taker.TokenIn, taker.Trader, ContractAddress, takerFee); err != nil {
		return err
	}

	// Mark consumed
	markFilled(state, makerHash)
	markFilled(state, takerHash)
	useNonce(state, maker.Trader, maker.Nonce)
	useNonce(state, taker.Trader, taker.Nonce)
	emitNonceUsed(state, maker.Trader, maker.Nonce)
	emitNonceUsed(state, taker.Trader, taker.Nonce)

	// Volume accounting
	addDailyVolume(state, maker.Trader, day, maker.AmountIn)
	addDailyVolume(state, taker.Trader, day, taker.AmountIn)

	// Fee accrual
	if makerFee.Sign() > 0 {
		gov, stake, val := accrueFee(state, maker.TokenIn, maker.MatchingValidator, makerFee)
		emitFeesDistributed(state, maker.TokenIn, getGovernance(state), getStakingPool(state), maker.MatchingValidator, gov, stake, val)
	}
	if takerFee.Sign() > 0 {
		gov, stake, val := accrueFee(state, taker.TokenIn, taker.MatchingValidator, takerFee)
		emitFeesDistributed(state, taker.TokenIn, getGovernance(state), getStakingPool(state), taker.MatchingValidator, gov, stake, val)
	}

	emitTradeSettled(state, makerHash, takerHash,
		maker.Trader, taker.Trader, maker.MatchingValidator, settler,
		maker.AmountIn, taker.AmountIn, makerFee, takerFee)

	c.archiveTrade(makerHash, takerHash, maker, taker, settler, now)

	c.log.Info("trade settled",
		"maker", maker.Trader.Hex(),
		"taker", taker.Trader.Hex(),
		"validator", maker.MatchingValidator.Hex(),
		"makerAmount", maker.AmountIn.String(),
		"takerAmount", taker.AmountIn.String(),
	)
	return nil
}

func feeFor(amount *big.Int, bps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return fee.Div(fee, new(big.Int).SetUint64(BasisPoints))
}

// checkFunding verifies the trader holds and has approved its full input
// amount before anything moves.
func (c *SettlementContract) checkFunding(state contract.StateDB, o *Order) error {
	if c.tokens.BalanceOf(state, o.TokenIn, o.Trader).Cmp(o.AmountIn) < 0 {
		return ErrInsufficientBalance
	}
	if c.tokens.Allowance(state, o.TokenIn, o.Trader, ContractAddress).Cmp(o.AmountIn) < 0 {
		return ErrInsufficientAllowance
	}
	return nil
}

// transferChecked moves [amount] and verifies the recipient's observed
// balance delta equals it exactly.
func (c *SettlementContract) transferChecked(state contract.StateDB, tok, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}

	before := c.tokens.BalanceOf(state, tok, to)
	if err := c.tokens.TransferFrom(state, tok, ContractAddress, from, to, amount); err != nil {
		return err
	}
	after := c.tokens.BalanceOf(state, tok, to)

	delta := new(big.Int).Sub(after, before)
	if delta.Cmp(amount) != 0 {
		return ErrFeeOnTransferNotSupported
	}
	return nil
}

// ClaimFees transfers and zeroes the caller's accrued balance for [tok].
// There are no partial claims.
func (c *SettlementContract) ClaimFees(
	accessibleState contract.AccessibleState,
	caller common.Address,
	tok common.Address,
) error {
	state := accessibleState.GetStateDB()

	balance := FeeBalance(state, caller, tok)
	if balance.Sign() == 0 {
		return ErrZeroAmount
	}

	return c.guarded(state, func() error {
		zeroFeeBalance(state, caller, tok)
		if err := c.tokens.TransferFrom(state, tok, ContractAddress, ContractAddress, caller, balance); err != nil {
			return err
		}
		emitFeesClaimed(state, caller, tok, balance)
		return nil
	})
}

// InvalidateNonce burns a single nonce of the caller.
func (c *SettlementContract) InvalidateNonce(
	accessibleState contract.AccessibleState,
	caller common.Address,
	nonce uint64,
) error {
	state := accessibleState.GetStateDB()
	if IsNonceUsed(state, caller, nonce) {
		return ErrNonceAlreadyUsed
	}
	useNonce(state, caller, nonce)
	emitNonceUsed(state, caller, nonce)
	return nil
}

// InvalidateNonceWord burns all 256 nonces of one word of the caller,
// bulk-cancelling every outstanding order in that range.
func (c *SettlementContract) InvalidateNonceWord(
	accessibleState contract.AccessibleState,
	caller common.Address,
	wordIndex uint64,
) error {
	state := accessibleState.GetStateDB()
	invalidateNonceWord(state, caller, wordIndex)
	emitNonceWordInvalidated(state, caller, wordIndex)
	return nil
}
