// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/omnibazaar/precompile/contract"
)

// Event topics. Off-chain indexers and the matching service key on these.
var (
	TopicOrderCommitted         = topic("OrderCommitted(address,bytes32,uint256)")
	TopicOrderRevealed          = topic("OrderRevealed(address,bytes32,uint256)")
	TopicTradeSettled           = topic("TradeSettled(bytes32,bytes32,address,address,address,address,uint256,uint256,uint256,uint256)")
	TopicFeesDistributed        = topic("FeesDistributed(address,address,address,address,uint256,uint256,uint256)")
	TopicFeesClaimed            = topic("FeesClaimed(address,address,uint256)")
	TopicNonceUsed              = topic("NonceUsed(address,uint256)")
	TopicNonceWordInvalidated   = topic("NonceWordInvalidated(address,uint256)")
	TopicIntentLocked           = topic("IntentLocked(bytes32,address,address,address,address,uint256,uint256)")
	TopicIntentSettled          = topic("IntentSettled(bytes32,address)")
	TopicIntentCancelled        = topic("IntentCancelled(bytes32)")
	TopicFeeRecipientsScheduled = topic("FeeRecipientsScheduled(address,address,uint256)")
	TopicFeeRecipientsApplied   = topic("FeeRecipientsApplied(address,address)")
	TopicTradingLimitsScheduled = topic("TradingLimitsScheduled(uint256)")
	TopicTradingLimitsApplied   = topic("TradingLimitsApplied()")
	TopicEmergencyStop          = topic("EmergencyStop(address)")
	TopicEmergencyResume        = topic("EmergencyResume(address)")
)

func topic(signature string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(signature)))
}

func emit(state contract.StateDB, topics []common.Hash, data []byte) {
	state.AddLog(&ethtypes.Log{
		Address: ContractAddress,
		Topics:  topics,
		Data:    data,
	})
}

func addrWord(a common.Address) []byte {
	var w [32]byte
	copy(w[12:], a.Bytes())
	return w[:]
}

func bigWord(v *big.Int) []byte {
	return common.BigToHash(v).Bytes()
}

func u64Word(v uint64) []byte {
	return bigWord(new(big.Int).SetUint64(v))
}

func packWords(words ...[]byte) []byte {
	out := make([]byte, 0, len(words)*32)
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func emitOrderCommitted(state contract.StateDB, trader common.Address, orderHash common.Hash, block uint64) {
	emit(state,
		[]common.Hash{TopicOrderCommitted, common.BytesToHash(addrWord(trader)), orderHash},
		u64Word(block))
}

func emitOrderRevealed(state contract.StateDB, trader common.Address, orderHash common.Hash, block uint64) {
	emit(state,
		[]common.Hash{TopicOrderRevealed, common.BytesToHash(addrWord(trader)), orderHash},
		u64Word(block))
}

func emitTradeSettled(
	state contract.StateDB,
	makerHash, takerHash common.Hash,
	maker, taker, matchingValidator, settler common.Address,
	makerAmount, takerAmount, makerFee, takerFee *big.Int,
) {
	emit(state,
		[]common.Hash{TopicTradeSettled, makerHash, takerHash},
		packWords(
			addrWord(maker), addrWord(taker),
			addrWord(matchingValidator), addrWord(settler),
			bigWord(makerAmount), bigWord(takerAmount),
			bigWord(makerFee), bigWord(takerFee),
		))
}

func emitFeesDistributed(
	state contract.StateDB,
	tok, governance, stakingPool, validator common.Address,
	governanceShare, stakingShare, validatorShare *big.Int,
) {
	emit(state,
		[]common.Hash{TopicFeesDistributed, common.BytesToHash(addrWord(tok))},
		packWords(
			addrWord(governance), addrWord(stakingPool), addrWord(validator),
			bigWord(governanceShare), bigWord(stakingShare), bigWord(validatorShare),
		))
}

func emitFeesClaimed(state contract.StateDB, recipient, tok common.Address, amount *big.Int) {
	emit(state,
		[]common.Hash{TopicFeesClaimed, common.BytesToHash(addrWord(recipient)), common.BytesToHash(addrWord(tok))},
		bigWord(amount))
}

func emitNonceUsed(state contract.StateDB, trader common.Address, nonce uint64) {
	emit(state,
		[]common.Hash{TopicNonceUsed, common.BytesToHash(addrWord(trader))},
		u64Word(nonce))
}

func emitNonceWordInvalidated(state contract.StateDB, trader common.Address, wordIndex uint64) {
	emit(state,
		[]common.Hash{TopicNonceWordInvalidated, common.BytesToHash(addrWord(trader))},
		u64Word(wordIndex))
}

func emitIntentLocked(
	state contract.StateDB,
	intentID common.Hash,
	trader, solver, tokenIn, tokenOut common.Address,
	traderAmount, solverAmount *big.Int,
) {
	emit(state,
		[]common.Hash{TopicIntentLocked, intentID, common.BytesToHash(addrWord(trader))},
		packWords(
			addrWord(solver), addrWord(tokenIn), addrWord(tokenOut),
			bigWord(traderAmount), bigWord(solverAmount),
		))
}

func emitIntentSettled(state contract.StateDB, intentID common.Hash, settler common.Address) {
	emit(state,
		[]common.Hash{TopicIntentSettled, intentID},
		addrWord(settler))
}

func emitIntentCancelled(state contract.StateDB, intentID common.Hash) {
	emit(state, []common.Hash{TopicIntentCancelled, intentID}, nil)
}

func emitFeeRecipientsScheduled(state contract.StateDB, governance, stakingPool common.Address, eta uint64) {
	emit(state,
		[]common.Hash{TopicFeeRecipientsScheduled},
		packWords(addrWord(governance), addrWord(stakingPool), u64Word(eta)))
}

func emitFeeRecipientsApplied(state contract.StateDB, governance, stakingPool common.Address) {
	emit(state,
		[]common.Hash{TopicFeeRecipientsApplied},
		packWords(addrWord(governance), addrWord(stakingPool)))
}

func emitTradingLimitsScheduled(state contract.StateDB, eta uint64) {
	emit(state, []common.Hash{TopicTradingLimitsScheduled}, u64Word(eta))
}

func emitTradingLimitsApplied(state contract.StateDB) {
	emit(state, []common.Hash{TopicTradingLimitsApplied}, nil)
}

func emitEmergencyStop(state contract.StateDB, caller common.Address) {
	emit(state, []common.Hash{TopicEmergencyStop}, addrWord(caller))
}

func emitEmergencyResume(state contract.StateDB, caller common.Address) {
	emit(state, []common.Hash{TopicEmergencyResume}, addrWord(caller))
}
