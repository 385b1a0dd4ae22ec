// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"
	"testing"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/stretchr/testify/require"
)

func TestTradeArchive(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	SetTradeArchive(memdb.New())
	defer SetTradeArchive(nil)

	makerOrder, takerOrder := matchedOrders(maker, taker)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	chainID := new(big.Int).SetUint64(testChainID)
	makerHash := makerOrder.Digest(chainID, ContractAddress)
	takerHash := takerOrder.Digest(chainID, ContractAddress)

	gotMaker, gotTaker, settler, timestamp, err := ArchivedTrade(makerHash, takerHash)
	require.NoError(t, err)
	require.Equal(t, makerOrder, gotMaker)
	require.Equal(t, takerOrder, gotTaker)
	require.Equal(t, testValidator, settler)
	require.Equal(t, env.timestamp, timestamp)

	// Unknown pair.
	_, _, _, _, err = ArchivedTrade(takerHash, makerHash)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestTradeArchiveDisabled(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	SetTradeArchive(nil)

	makerOrder, takerOrder := matchedOrders(maker, taker)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	_, _, _, _, err := ArchivedTrade(
		makerOrder.Digest(new(big.Int).SetUint64(testChainID), ContractAddress),
		takerOrder.Digest(new(big.Int).SetUint64(testChainID), ContractAddress))
	require.ErrorIs(t, err, database.ErrNotFound)
}
