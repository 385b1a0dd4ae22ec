// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/omnibazaar/precompile/token"
)

func lockTestIntent(t *testing.T, env *mockAccessibleState, c *SettlementContract, trader, solver common.Address, id common.Hash) {
	t.Helper()
	require.NoError(t, c.LockIntentCollateral(env, trader, id,
		solver, tokenA, tokenB, big.NewInt(100), big.NewInt(200), env.timestamp+3600))
}

func TestIntentLifecycleSettle(t *testing.T) {
	env, c, trader, _ := newSettlementEnv(t)
	state := env.state
	solver := newTrader(t)
	fund(t, state, tokenB, solver.addr, big.NewInt(1000))
	id := common.HexToHash("0x01")

	lockTestIntent(t, env, c, trader.addr, solver.addr, id)

	// Escrow moved in.
	require.Equal(t, big.NewInt(100), token.BalanceOf(state, tokenA, ContractAddress))

	intent := GetIntent(state, id)
	require.True(t, intent.Exists)
	require.True(t, intent.Locked)
	require.Equal(t, trader.addr, intent.Trader)
	require.Equal(t, solver.addr, intent.Solver)

	// A third party cannot settle.
	require.ErrorIs(t, c.SettleIntent(env, common.HexToAddress("0x03"), id), ErrUnauthorizedIntentSettler)

	require.NoError(t, c.SettleIntent(env, solver.addr, id))
	require.Equal(t, big.NewInt(200), token.BalanceOf(state, tokenB, trader.addr))
	require.Equal(t, big.NewInt(100), token.BalanceOf(state, tokenA, solver.addr))
	require.Equal(t, big.NewInt(800), token.BalanceOf(state, tokenB, solver.addr))
	require.Equal(t, big.NewInt(0), token.BalanceOf(state, tokenA, ContractAddress))

	intent = GetIntent(state, id)
	require.True(t, intent.Settled)
	require.False(t, intent.Locked)

	// Terminal: cannot settle or cancel again.
	require.ErrorIs(t, c.SettleIntent(env, solver.addr, id), ErrIntentNotLocked)
	require.ErrorIs(t, c.CancelIntent(env, trader.addr, id), ErrIntentNotLocked)

	require.True(t, state.hasLog(TopicIntentLocked))
	require.True(t, state.hasLog(TopicIntentSettled))
}

func TestIntentCancelAfterDeadline(t *testing.T) {
	env, c, trader, _ := newSettlementEnv(t)
	state := env.state
	solver := newTrader(t)
	id := common.HexToHash("0x02")

	lockTestIntent(t, env, c, trader.addr, solver.addr, id)
	traderBefore := token.BalanceOf(state, tokenA, trader.addr)

	// Only the trader may cancel, and only strictly after the deadline.
	require.ErrorIs(t, c.CancelIntent(env, solver.addr, id), ErrUnauthorized)
	require.ErrorIs(t, c.CancelIntent(env, trader.addr, id), ErrIntentDeadlineNotPassed)

	env.timestamp += 3600
	require.ErrorIs(t, c.CancelIntent(env, trader.addr, id), ErrIntentDeadlineNotPassed)

	env.timestamp++
	require.NoError(t, c.CancelIntent(env, trader.addr, id))

	// Escrow refunded in full.
	require.Equal(t, new(big.Int).Add(traderBefore, big.NewInt(100)), token.BalanceOf(state, tokenA, trader.addr))

	intent := GetIntent(state, id)
	require.True(t, intent.Cancelled)
	require.False(t, intent.Locked)

	// A settled-or-cancelled id is never reusable.
	err := c.LockIntentCollateral(env, trader.addr, id,
		solver.addr, tokenA, tokenB, big.NewInt(1), big.NewInt(1), env.timestamp+10)
	require.ErrorIs(t, err, ErrIntentAlreadyExists)
}

func TestIntentLockValidation(t *testing.T) {
	env, c, trader, _ := newSettlementEnv(t)
	solver := newTrader(t)
	id := common.HexToHash("0x03")

	err := c.LockIntentCollateral(env, trader.addr, id,
		common.Address{}, tokenA, tokenB, big.NewInt(1), big.NewInt(1), env.timestamp+10)
	require.ErrorIs(t, err, ErrZeroAddress)

	err = c.LockIntentCollateral(env, trader.addr, id,
		solver.addr, tokenA, tokenB, big.NewInt(0), big.NewInt(1), env.timestamp+10)
	require.ErrorIs(t, err, ErrZeroAmount)

	lockTestIntent(t, env, c, trader.addr, solver.addr, id)
	require.ErrorIs(t, c.LockIntentCollateral(env, trader.addr, id,
		solver.addr, tokenA, tokenB, big.NewInt(1), big.NewInt(1), env.timestamp+10),
		ErrIntentAlreadyExists)
}

func TestIntentSettleSolverUnfunded(t *testing.T) {
	env, c, trader, _ := newSettlementEnv(t)
	state := env.state
	solver := newTrader(t)
	id := common.HexToHash("0x04")

	// Solver approved the contract but holds no tokenB.
	require.NoError(t, token.Approve(state, tokenB, solver.addr, ContractAddress, big.NewInt(1000)))
	lockTestIntent(t, env, c, trader.addr, solver.addr, id)

	require.ErrorIs(t, c.SettleIntent(env, solver.addr, id), token.ErrInsufficientBalance)

	// Escrow stays locked and intact.
	intent := GetIntent(state, id)
	require.True(t, intent.Locked)
	require.Equal(t, big.NewInt(100), token.BalanceOf(state, tokenA, ContractAddress))
}

func TestIntentPaused(t *testing.T) {
	env, c, trader, _ := newSettlementEnv(t)
	solver := newTrader(t)
	id := common.HexToHash("0x05")

	lockTestIntent(t, env, c, trader.addr, solver.addr, id)
	require.NoError(t, c.EmergencyStop(env, testAdmin))

	require.ErrorIs(t, c.LockIntentCollateral(env, trader.addr, common.HexToHash("0x06"),
		solver.addr, tokenA, tokenB, big.NewInt(1), big.NewInt(1), env.timestamp+10),
		ErrSettlementPaused)
	require.ErrorIs(t, c.SettleIntent(env, solver.addr, id), ErrSettlementPaused)

	// Cancellation is an exit path and stays available while paused.
	env.timestamp += 3601
	require.NoError(t, c.CancelIntent(env, trader.addr, id))
}
