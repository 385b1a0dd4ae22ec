// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Intent settlement is the bilateral escrow path: a trader pre-deposits
// real collateral against an opaque intent id, and the pre-declared solver
// (or the trader) later completes the swap atomically, or the trader
// reclaims the escrow after expiry. locked → settled and locked →
// cancelled are mutually exclusive terminal transitions, and an id is
// never reusable.

func intentSlot(intentID common.Hash, field string) common.Hash {
	return contract.Slot(nsIntent, intentID.Bytes(), []byte(field))
}

// GetIntent returns the escrow record for [intentID].
func GetIntent(state contract.StateDB, intentID common.Hash) IntentCollateral {
	deadline, exists := contract.LoadUint64(state, ContractAddress, intentSlot(intentID, "deadline"))
	return IntentCollateral{
		Trader:       contract.LoadAddress(state, ContractAddress, intentSlot(intentID, "trader")),
		Solver:       contract.LoadAddress(state, ContractAddress, intentSlot(intentID, "solver")),
		TokenIn:      contract.LoadAddress(state, ContractAddress, intentSlot(intentID, "tokenIn")),
		TokenOut:     contract.LoadAddress(state, ContractAddress, intentSlot(intentID, "tokenOut")),
		TraderAmount: contract.LoadBig(state, ContractAddress, intentSlot(intentID, "traderAmount")),
		SolverAmount: contract.LoadBig(state, ContractAddress, intentSlot(intentID, "solverAmount")),
		Deadline:     deadline,
		Locked:       contract.LoadBool(state, ContractAddress, intentSlot(intentID, "locked")),
		Settled:      contract.LoadBool(state, ContractAddress, intentSlot(intentID, "settled")),
		Cancelled:    contract.LoadBool(state, ContractAddress, intentSlot(intentID, "cancelled")),
		Exists:       exists,
	}
}

// LockIntentCollateral escrows [traderAmount] of [tokenIn] from the caller
// against [intentID].
func (c *SettlementContract) LockIntentCollateral(
	accessibleState contract.AccessibleState,
	caller common.Address,
	intentID common.Hash,
	solver common.Address,
	tokenIn, tokenOut common.Address,
	traderAmount, solverAmount *big.Int,
	deadline uint64,
) error {
	state := accessibleState.GetStateDB()

	if isPaused(state) {
		return ErrSettlementPaused
	}
	if solver == (common.Address{}) || tokenIn == (common.Address{}) || tokenOut == (common.Address{}) {
		return ErrZeroAddress
	}
	if traderAmount.Sign() <= 0 || solverAmount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if GetIntent(state, intentID).Exists {
		return ErrIntentAlreadyExists
	}

	return c.guarded(state, func() error {
		if err := c.tokens.TransferFrom(state, tokenIn, ContractAddress, caller, ContractAddress, traderAmount); err != nil {
			return err
		}

		contract.StoreAddress(state, ContractAddress, intentSlot(intentID, "trader"), caller)
		contract.StoreAddress(state, ContractAddress, intentSlot(intentID, "solver"), solver)
		contract.StoreAddress(state, ContractAddress, intentSlot(intentID, "tokenIn"), tokenIn)
		contract.StoreAddress(state, ContractAddress, intentSlot(intentID, "tokenOut"), tokenOut)
		contract.StoreBig(state, ContractAddress, intentSlot(intentID, "traderAmount"), traderAmount)
		contract.StoreBig(state, ContractAddress, intentSlot(intentID, "solverAmount"), solverAmount)
		contract.StoreUint64(state, ContractAddress, intentSlot(intentID, "deadline"), deadline)
		contract.StoreBool(state, ContractAddress, intentSlot(intentID, "locked"), true)

		emitIntentLocked(state, intentID, caller, solver, tokenIn, tokenOut, traderAmount, solverAmount)
		return nil
	})
}

// SettleIntent completes the bilateral swap: the escrowed tokenIn goes to
// the solver, the solver's tokenOut goes to the trader. Only the trader or
// the pre-declared solver may settle; a third party must not be able to
// force a swap on the solver's behalf.
func (c *SettlementContract) SettleIntent(
	accessibleState contract.AccessibleState,
	caller common.Address,
	intentID common.Hash,
) error {
	state := accessibleState.GetStateDB()

	if isPaused(state) {
		return ErrSettlementPaused
	}

	intent := GetIntent(state, intentID)
	if !intent.Exists || !intent.Locked || intent.Settled || intent.Cancelled {
		return ErrIntentNotLocked
	}
	if caller != intent.Trader && caller != intent.Solver {
		return ErrUnauthorizedIntentSettler
	}

	return c.guarded(state, func() error {
		// Solver leg first: it is the one that can fail on balance/allowance.
		if err := c.tokens.TransferFrom(state, intent.TokenOut, ContractAddress, intent.Solver, intent.Trader, intent.SolverAmount); err != nil {
			return err
		}
		if err := c.tokens.TransferFrom(state, intent.TokenIn, ContractAddress, ContractAddress, intent.Solver, intent.TraderAmount); err != nil {
			return err
		}

		contract.StoreBool(state, ContractAddress, intentSlot(intentID, "settled"), true)
		contract.StoreBool(state, ContractAddress, intentSlot(intentID, "locked"), false)

		emitIntentSettled(state, intentID, caller)
		return nil
	})
}

// CancelIntent lets the trader reclaim escrow strictly after the deadline.
func (c *SettlementContract) CancelIntent(
	accessibleState contract.AccessibleState,
	caller common.Address,
	intentID common.Hash,
) error {
	state := accessibleState.GetStateDB()

	intent := GetIntent(state, intentID)
	if !intent.Exists || !intent.Locked || intent.Settled || intent.Cancelled {
		return ErrIntentNotLocked
	}
	if caller != intent.Trader {
		return ErrUnauthorized
	}

	now := accessibleState.GetBlockContext().Timestamp()
	if now <= intent.Deadline {
		return ErrIntentDeadlineNotPassed
	}

	return c.guarded(state, func() error {
		if err := c.tokens.TransferFrom(state, intent.TokenIn, ContractAddress, ContractAddress, intent.Trader, intent.TraderAmount); err != nil {
			return err
		}

		contract.StoreBool(state, ContractAddress, intentSlot(intentID, "cancelled"), true)
		contract.StoreBool(state, ContractAddress, intentSlot(intentID, "locked"), false)

		emitIntentCancelled(state, intentID)
		return nil
	})
}
