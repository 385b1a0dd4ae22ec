// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Critical parameters (fee recipients, trading limits) change in two
// phases: an admin schedules the new values, and only after TimelockDelay
// may anyone apply them. Applying a recipient rotation first flushes the
// outgoing recipients' pending balances so nothing is orphaned under the
// old addresses.

func getPendingLimits(state contract.StateDB) PendingLimits {
	eta, exists := contract.LoadUint64(state, ContractAddress, pendingSlot("limits.eta"))
	slippage, _ := contract.LoadUint64(state, ContractAddress, pendingSlot("limits.maxSlippageBps"))
	return PendingLimits{
		Limits: TradingLimits{
			MaxTradeSize:     contract.LoadBig(state, ContractAddress, pendingSlot("limits.maxTradeSize")),
			DailyVolumeLimit: contract.LoadBig(state, ContractAddress, pendingSlot("limits.dailyVolumeLimit")),
			MaxSlippageBps:   slippage,
		},
		ETA:    eta,
		Exists: exists,
	}
}

// ScheduleFeeRecipients schedules a governance/staking-pool rotation.
func (c *SettlementContract) ScheduleFeeRecipients(
	accessibleState contract.AccessibleState,
	caller common.Address,
	governance, stakingPool common.Address,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}
	if governance == (common.Address{}) || stakingPool == (common.Address{}) {
		return ErrZeroAddress
	}

	eta := accessibleState.GetBlockContext().Timestamp() + TimelockDelay
	setPendingRecipients(state, PendingRecipients{
		Governance:  governance,
		StakingPool: stakingPool,
		ETA:         eta,
	})

	emitFeeRecipientsScheduled(state, governance, stakingPool, eta)
	return nil
}

// ApplyFeeRecipients applies a scheduled rotation once the timelock has
// elapsed, flushing the old recipients' balances first.
func (c *SettlementContract) ApplyFeeRecipients(
	accessibleState contract.AccessibleState,
	caller common.Address,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}

	pending := getPendingRecipients(state)
	if !pending.Exists {
		return ErrNoPendingChange
	}
	if accessibleState.GetBlockContext().Timestamp() < pending.ETA {
		return ErrTimelockNotElapsed
	}

	snapshot := state.Snapshot()
	if err := c.flushRecipient(state, getGovernance(state)); err != nil {
		state.RevertToSnapshot(snapshot)
		return err
	}
	if err := c.flushRecipient(state, getStakingPool(state)); err != nil {
		state.RevertToSnapshot(snapshot)
		return err
	}

	setGovernance(state, pending.Governance)
	setStakingPool(state, pending.StakingPool)
	clearPendingRecipients(state)

	emitFeeRecipientsApplied(state, pending.Governance, pending.StakingPool)
	return nil
}

// ScheduleTradingLimits schedules new risk limits.
func (c *SettlementContract) ScheduleTradingLimits(
	accessibleState contract.AccessibleState,
	caller common.Address,
	limits TradingLimits,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}
	if limits.MaxSlippageBps > BasisPoints {
		return ErrInvalidInput
	}

	maxTrade := limits.MaxTradeSize
	if maxTrade == nil {
		maxTrade = new(big.Int)
	}
	dailyLimit := limits.DailyVolumeLimit
	if dailyLimit == nil {
		dailyLimit = new(big.Int)
	}

	eta := accessibleState.GetBlockContext().Timestamp() + TimelockDelay
	contract.StoreBig(state, ContractAddress, pendingSlot("limits.maxTradeSize"), maxTrade)
	contract.StoreBig(state, ContractAddress, pendingSlot("limits.dailyVolumeLimit"), dailyLimit)
	contract.StoreUint64(state, ContractAddress, pendingSlot("limits.maxSlippageBps"), limits.MaxSlippageBps)
	contract.StoreUint64(state, ContractAddress, pendingSlot("limits.eta"), eta)

	emitTradingLimitsScheduled(state, eta)
	return nil
}

// ApplyTradingLimits applies scheduled limits once the timelock elapsed.
func (c *SettlementContract) ApplyTradingLimits(
	accessibleState contract.AccessibleState,
	caller common.Address,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}

	pending := getPendingLimits(state)
	if !pending.Exists {
		return ErrNoPendingChange
	}
	if accessibleState.GetBlockContext().Timestamp() < pending.ETA {
		return ErrTimelockNotElapsed
	}

	setLimits(state, pending.Limits)
	state.SetState(ContractAddress, pendingSlot("limits.eta"), common.Hash{})

	emitTradingLimitsApplied(state)
	return nil
}

// EmergencyStop halts new settlements (trades and intent lock/settle)
// without affecting claims or cancellations.
func (c *SettlementContract) EmergencyStop(
	accessibleState contract.AccessibleState,
	caller common.Address,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}
	setPaused(state, true)
	emitEmergencyStop(state, caller)
	c.log.Warn("settlement emergency stop", "caller", caller.Hex())
	return nil
}

// EmergencyResume lifts an emergency stop.
func (c *SettlementContract) EmergencyResume(
	accessibleState contract.AccessibleState,
	caller common.Address,
) error {
	state := accessibleState.GetStateDB()
	if !isAdmin(state, caller) {
		return ErrUnauthorized
	}
	setPaused(state, false)
	emitEmergencyResume(state, caller)
	c.log.Info("settlement resumed", "caller", caller.Hex())
	return nil
}

// Limits returns the active trading limits.
func Limits(state contract.StateDB) TradingLimits {
	return getLimits(state)
}

// Paused reports whether the emergency stop is active.
func Paused(state contract.StateDB) bool {
	return isPaused(state)
}
