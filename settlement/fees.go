// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Fee accrual is a pull-payment ledger: every collected fee is split three
// ways and credited to claimable balances, and recipients withdraw with
// ClaimFees. Pushing payments instead would let a reverting recipient block
// every settlement.

func feeBalanceSlot(recipient, tok common.Address) common.Hash {
	return contract.Slot(nsFeeBalance, recipient.Bytes(), tok.Bytes())
}

// FeeBalance returns the claimable balance of [recipient] in [tok].
func FeeBalance(state contract.StateDB, recipient, tok common.Address) *big.Int {
	return contract.LoadBig(state, ContractAddress, feeBalanceSlot(recipient, tok))
}

func creditFee(state contract.StateDB, recipient, tok common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	current := FeeBalance(state, recipient, tok)
	contract.StoreBig(state, ContractAddress, feeBalanceSlot(recipient, tok), new(big.Int).Add(current, amount))
}

func zeroFeeBalance(state contract.StateDB, recipient, tok common.Address) {
	contract.StoreBig(state, ContractAddress, feeBalanceSlot(recipient, tok), new(big.Int))
}

// SplitFee divides [fee] into staking pool, matching validator, and
// governance shares. Shares always sum to the fee exactly; governance
// absorbs the rounding dust so the validator never gains from rounding.
func SplitFee(fee *big.Int) (governance, staking, validator *big.Int) {
	bps := new(big.Int).SetUint64(BasisPoints)
	staking = new(big.Int).Mul(fee, new(big.Int).SetUint64(StakingShare))
	staking.Div(staking, bps)
	validator = new(big.Int).Mul(fee, new(big.Int).SetUint64(ValidatorShare))
	validator.Div(validator, bps)
	governance = new(big.Int).Sub(fee, staking)
	governance.Sub(governance, validator)
	return governance, staking, validator
}

// accrueFee splits a collected [fee] in [tok] and credits the three ledger
// entries atomically with the enclosing settlement.
func accrueFee(state contract.StateDB, tok, matchingValidator common.Address, fee *big.Int) (governance, staking, validator *big.Int) {
	governance, staking, validator = SplitFee(fee)
	creditFee(state, getGovernance(state), tok, governance)
	creditFee(state, getStakingPool(state), tok, staking)
	creditFee(state, matchingValidator, tok, validator)
	trackFeeToken(state, tok)
	return governance, staking, validator
}

// --- fee token tracking ---
//
// The ledger keeps an enumerable list of every token it ever collected a
// fee in, so a recipient rotation can flush all balances of the outgoing
// recipients.

func trackFeeToken(state contract.StateDB, tok common.Address) {
	seenSlot := contract.Slot(nsFeeTokenSeen, tok.Bytes())
	if contract.LoadBool(state, ContractAddress, seenSlot) {
		return
	}
	contract.StoreBool(state, ContractAddress, seenSlot, true)

	count, _ := contract.LoadUint64(state, ContractAddress, contract.Slot(nsFeeTokenCount))
	contract.StoreAddress(state, ContractAddress, contract.Slot(nsFeeTokenIndex, u64bytes(count)), tok)
	contract.StoreUint64(state, ContractAddress, contract.Slot(nsFeeTokenCount), count+1)
}

// FeeTokens returns every token fees were ever collected in.
func FeeTokens(state contract.StateDB) []common.Address {
	count, _ := contract.LoadUint64(state, ContractAddress, contract.Slot(nsFeeTokenCount))
	tokens := make([]common.Address, count)
	for i := uint64(0); i < count; i++ {
		tokens[i] = contract.LoadAddress(state, ContractAddress, contract.Slot(nsFeeTokenIndex, u64bytes(i)))
	}
	return tokens
}

// --- recipient rotation under timelock ---

func getPendingRecipients(state contract.StateDB) PendingRecipients {
	eta, exists := contract.LoadUint64(state, ContractAddress, pendingSlot("recipients.eta"))
	return PendingRecipients{
		Governance:  contract.LoadAddress(state, ContractAddress, pendingSlot("recipients.governance")),
		StakingPool: contract.LoadAddress(state, ContractAddress, pendingSlot("recipients.stakingPool")),
		ETA:         eta,
		Exists:      exists,
	}
}

func setPendingRecipients(state contract.StateDB, p PendingRecipients) {
	contract.StoreAddress(state, ContractAddress, pendingSlot("recipients.governance"), p.Governance)
	contract.StoreAddress(state, ContractAddress, pendingSlot("recipients.stakingPool"), p.StakingPool)
	contract.StoreUint64(state, ContractAddress, pendingSlot("recipients.eta"), p.ETA)
}

func clearPendingRecipients(state contract.StateDB) {
	contract.StoreAddress(state, ContractAddress, pendingSlot("recipients.governance"), common.Address{})
	contract.StoreAddress(state, ContractAddress, pendingSlot("recipients.stakingPool"), common.Address{})
	state.SetState(ContractAddress, pendingSlot("recipients.eta"), common.Hash{})
}

// flushRecipient pays out every tracked fee token balance of [recipient]
// directly, so no balance is silently abandoned when the address rotates.
func (c *SettlementContract) flushRecipient(state contract.StateDB, recipient common.Address) error {
	if recipient == (common.Address{}) {
		return nil
	}
	for _, tok := range FeeTokens(state) {
		bal := FeeBalance(state, recipient, tok)
		if bal.Sign() == 0 {
			continue
		}
		zeroFeeBalance(state, recipient, tok)
		if err := c.tokens.TransferFrom(state, tok, ContractAddress, ContractAddress, recipient, bal); err != nil {
			return err
		}
		emitFeesClaimed(state, recipient, tok, bal)
	}
	return nil
}
