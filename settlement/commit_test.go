// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitRevealWindow(t *testing.T) {
	env, c, maker, _ := newSettlementEnv(t)
	chainID := new(big.Int).SetUint64(testChainID)

	order, _ := matchedOrders(maker, newTrader(t))
	orderHash := order.Digest(chainID, ContractAddress)

	require.NoError(t, c.CommitOrder(env, maker.addr, orderHash))
	require.ErrorIs(t, c.CommitOrder(env, maker.addr, orderHash), ErrAlreadyCommitted)

	commitment := GetCommitment(env.state, maker.addr, orderHash)
	require.True(t, commitment.Exists)
	require.False(t, commitment.Revealed)
	require.Equal(t, env.blockNum.Uint64(), commitment.CommitBlock)

	// Same block as the commit: too early.
	require.ErrorIs(t, c.RevealOrder(env, maker.addr, order), ErrRevealTooEarly)

	// Inside the window.
	env.blockNum = new(big.Int).Add(env.blockNum, big.NewInt(int64(MinCommitBlocks)))
	require.NoError(t, c.RevealOrder(env, maker.addr, order))
	require.ErrorIs(t, c.RevealOrder(env, maker.addr, order), ErrAlreadyRevealed)

	require.True(t, GetCommitment(env.state, maker.addr, orderHash).Revealed)
	require.True(t, env.state.hasLog(TopicOrderCommitted))
	require.True(t, env.state.hasLog(TopicOrderRevealed))
}

func TestRevealTooLate(t *testing.T) {
	env, c, maker, _ := newSettlementEnv(t)
	chainID := new(big.Int).SetUint64(testChainID)

	order, _ := matchedOrders(maker, newTrader(t))
	orderHash := order.Digest(chainID, ContractAddress)
	require.NoError(t, c.CommitOrder(env, maker.addr, orderHash))

	env.blockNum = new(big.Int).Add(env.blockNum, big.NewInt(int64(MaxCommitBlocks)+1))
	require.ErrorIs(t, c.RevealOrder(env, maker.addr, order), ErrRevealTooLate)
}

func TestRevealRequiresCommitAndOwner(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)

	order, _ := matchedOrders(maker, taker)
	require.ErrorIs(t, c.RevealOrder(env, maker.addr, order), ErrNoCommitment)

	// Only the order's trader may reveal it.
	require.ErrorIs(t, c.RevealOrder(env, taker.addr, order), ErrUnauthorized)
}

func TestSettleRequiresReveal(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	setRequireCommitReveal(env.state, true)
	chainID := new(big.Int).SetUint64(testChainID)

	makerOrder, takerOrder := matchedOrders(maker, taker)
	require.ErrorIs(t, settle(t, env, c, maker, taker, makerOrder, takerOrder), ErrOrderNotRevealed)

	// Commit and reveal both orders, then settlement goes through.
	require.NoError(t, c.CommitOrder(env, maker.addr, makerOrder.Digest(chainID, ContractAddress)))
	require.NoError(t, c.CommitOrder(env, taker.addr, takerOrder.Digest(chainID, ContractAddress)))
	env.blockNum = new(big.Int).Add(env.blockNum, big.NewInt(2))
	require.NoError(t, c.RevealOrder(env, maker.addr, makerOrder))
	require.ErrorIs(t, settle(t, env, c, maker, taker, makerOrder, takerOrder), ErrOrderNotRevealed)

	require.NoError(t, c.RevealOrder(env, taker.addr, takerOrder))
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))
}
