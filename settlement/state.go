// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"encoding/binary"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Storage namespaces. Every mutable store of the settlement contract lives
// under ContractAddress, keyed through these namespaces.
const (
	nsFilled         = "dex.filled"
	nsNonceWord      = "dex.nonce.word"
	nsCommitBlock    = "dex.commit.block"
	nsCommitRevealed = "dex.commit.revealed"
	nsIntent         = "dex.intent"
	nsFeeBalance     = "dex.fee.balance"
	nsFeeTokenCount  = "dex.fee.tokens.count"
	nsFeeTokenIndex  = "dex.fee.tokens.index"
	nsFeeTokenSeen   = "dex.fee.tokens.seen"
	nsVolume         = "dex.volume"
	nsConfig         = "dex.config"
	nsPending        = "dex.pending"
)

// Config field keys under nsConfig.
const (
	cfgAdmin            = "admin"
	cfgGovernance       = "governance"
	cfgStakingPool      = "stakingPool"
	cfgChainID          = "chainID"
	cfgPaused           = "paused"
	cfgGuard            = "guard"
	cfgMaxTradeSize     = "maxTradeSize"
	cfgDailyVolumeLimit = "dailyVolumeLimit"
	cfgMaxSlippageBps   = "maxSlippageBps"
	cfgRequireReveal    = "requireCommitReveal"
)

func configSlot(field string) common.Hash {
	return contract.Slot(nsConfig, []byte(field))
}

func pendingSlot(field string) common.Hash {
	return contract.Slot(nsPending, []byte(field))
}

func u64bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// --- config accessors ---

func getAdmin(state contract.StateDB) common.Address {
	return contract.LoadAddress(state, ContractAddress, configSlot(cfgAdmin))
}

func setAdmin(state contract.StateDB, admin common.Address) {
	contract.StoreAddress(state, ContractAddress, configSlot(cfgAdmin), admin)
}

func isAdmin(state contract.StateDB, caller common.Address) bool {
	admin := getAdmin(state)
	if admin == (common.Address{}) {
		return true
	}
	return caller == admin
}

func getGovernance(state contract.StateDB) common.Address {
	return contract.LoadAddress(state, ContractAddress, configSlot(cfgGovernance))
}

func setGovernance(state contract.StateDB, addr common.Address) {
	contract.StoreAddress(state, ContractAddress, configSlot(cfgGovernance), addr)
}

func getStakingPool(state contract.StateDB) common.Address {
	return contract.LoadAddress(state, ContractAddress, configSlot(cfgStakingPool))
}

func setStakingPool(state contract.StateDB, addr common.Address) {
	contract.StoreAddress(state, ContractAddress, configSlot(cfgStakingPool), addr)
}

func getChainID(state contract.StateDB) *big.Int {
	v, _ := contract.LoadUint64(state, ContractAddress, configSlot(cfgChainID))
	return new(big.Int).SetUint64(v)
}

func setChainID(state contract.StateDB, chainID uint64) {
	contract.StoreUint64(state, ContractAddress, configSlot(cfgChainID), chainID)
}

func isPaused(state contract.StateDB) bool {
	return contract.LoadBool(state, ContractAddress, configSlot(cfgPaused))
}

func setPaused(state contract.StateDB, paused bool) {
	contract.StoreBool(state, ContractAddress, configSlot(cfgPaused), paused)
}

func requireCommitReveal(state contract.StateDB) bool {
	return contract.LoadBool(state, ContractAddress, configSlot(cfgRequireReveal))
}

func setRequireCommitReveal(state contract.StateDB, v bool) {
	contract.StoreBool(state, ContractAddress, configSlot(cfgRequireReveal), v)
}

// --- trading limits ---

func getLimits(state contract.StateDB) TradingLimits {
	slippage, _ := contract.LoadUint64(state, ContractAddress, configSlot(cfgMaxSlippageBps))
	return TradingLimits{
		MaxTradeSize:     contract.LoadBig(state, ContractAddress, configSlot(cfgMaxTradeSize)),
		DailyVolumeLimit: contract.LoadBig(state, ContractAddress, configSlot(cfgDailyVolumeLimit)),
		MaxSlippageBps:   slippage,
	}
}

func setLimits(state contract.StateDB, limits TradingLimits) {
	maxTrade := limits.MaxTradeSize
	if maxTrade == nil {
		maxTrade = new(big.Int)
	}
	dailyLimit := limits.DailyVolumeLimit
	if dailyLimit == nil {
		dailyLimit = new(big.Int)
	}
	contract.StoreBig(state, ContractAddress, configSlot(cfgMaxTradeSize), maxTrade)
	contract.StoreBig(state, ContractAddress, configSlot(cfgDailyVolumeLimit), dailyLimit)
	contract.StoreUint64(state, ContractAddress, configSlot(cfgMaxSlippageBps), limits.MaxSlippageBps)
}

// --- filled set ---

func isFilled(state contract.StateDB, orderHash common.Hash) bool {
	return contract.LoadBool(state, ContractAddress, contract.Slot(nsFilled, orderHash.Bytes()))
}

func markFilled(state contract.StateDB, orderHash common.Hash) {
	contract.StoreBool(state, ContractAddress, contract.Slot(nsFilled, orderHash.Bytes()), true)
}

// --- daily volume ---

func dayIndex(timestamp uint64) uint64 {
	return timestamp / SecondsPerDay
}

func volumeSlot(trader common.Address, day uint64) common.Hash {
	return contract.Slot(nsVolume, trader.Bytes(), u64bytes(day))
}

func getDailyVolume(state contract.StateDB, trader common.Address, day uint64) *big.Int {
	return contract.LoadBig(state, ContractAddress, volumeSlot(trader, day))
}

func addDailyVolume(state contract.StateDB, trader common.Address, day uint64, amount *big.Int) {
	current := getDailyVolume(state, trader, day)
	contract.StoreBig(state, ContractAddress, volumeSlot(trader, day), new(big.Int).Add(current, amount))
}
