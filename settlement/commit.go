// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Commit-reveal delays order exposure to deter block-builder front-running:
// a trader first commits to an order hash, then reveals the full order only
// inside the window [commit+MinCommitBlocks, commit+MaxCommitBlocks].
// Missing the window forces a fresh commitment. Commitments are never
// deleted; they serve as an audit trail.

func commitBlockSlot(trader common.Address, orderHash common.Hash) common.Hash {
	return contract.Slot(nsCommitBlock, trader.Bytes(), orderHash.Bytes())
}

func commitRevealedSlot(trader common.Address, orderHash common.Hash) common.Hash {
	return contract.Slot(nsCommitRevealed, trader.Bytes(), orderHash.Bytes())
}

// GetCommitment returns the commitment state for (trader, orderHash).
func GetCommitment(state contract.StateDB, trader common.Address, orderHash common.Hash) Commitment {
	block, exists := contract.LoadUint64(state, ContractAddress, commitBlockSlot(trader, orderHash))
	return Commitment{
		CommitBlock: block,
		Revealed:    contract.LoadBool(state, ContractAddress, commitRevealedSlot(trader, orderHash)),
		Exists:      exists,
	}
}

// CommitOrder records the caller's commitment to [orderHash] at the
// current block.
func (c *SettlementContract) CommitOrder(
	accessibleState contract.AccessibleState,
	caller common.Address,
	orderHash common.Hash,
) error {
	state := accessibleState.GetStateDB()

	if GetCommitment(state, caller, orderHash).Exists {
		return ErrAlreadyCommitted
	}

	blockNumber := accessibleState.GetBlockContext().Number().Uint64()
	contract.StoreUint64(state, ContractAddress, commitBlockSlot(caller, orderHash), blockNumber)

	emitOrderCommitted(state, caller, orderHash, blockNumber)
	return nil
}

// RevealOrder marks a previously committed order revealed, provided the
// current block is inside the reveal window.
func (c *SettlementContract) RevealOrder(
	accessibleState contract.AccessibleState,
	caller common.Address,
	order *Order,
) error {
	state := accessibleState.GetStateDB()

	if err := validateOrderFields(order); err != nil {
		return err
	}
	if caller != order.Trader {
		return ErrUnauthorized
	}

	orderHash := order.Digest(getChainID(state), ContractAddress)
	commitment := GetCommitment(state, caller, orderHash)
	if !commitment.Exists {
		return ErrNoCommitment
	}
	if commitment.Revealed {
		return ErrAlreadyRevealed
	}

	blockNumber := accessibleState.GetBlockContext().Number().Uint64()
	if blockNumber < commitment.CommitBlock+MinCommitBlocks {
		return ErrRevealTooEarly
	}
	if blockNumber > commitment.CommitBlock+MaxCommitBlocks {
		return ErrRevealTooLate
	}

	contract.StoreBool(state, ContractAddress, commitRevealedSlot(caller, orderHash), true)

	emitOrderRevealed(state, caller, orderHash, blockNumber)
	return nil
}
