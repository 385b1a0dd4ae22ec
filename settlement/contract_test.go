// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/token"
)

func TestOrderWireRoundTrip(t *testing.T) {
	order := &Order{
		Trader:            common.HexToAddress("0x01"),
		IsBuy:             true,
		TokenIn:           tokenA,
		TokenOut:          tokenB,
		AmountIn:          big.NewInt(100),
		AmountOut:         big.NewInt(200),
		Price:             big.NewInt(20000),
		Deadline:          big.NewInt(1_700_100_000),
		Salt:              new(big.Int).Lsh(big.NewInt(1), 200),
		MatchingValidator: testValidator,
		Nonce:             77,
	}

	encoded := EncodeOrder(order)
	require.Len(t, encoded, orderWireSize)

	decoded, err := DecodeOrder(encoded)
	require.NoError(t, err)
	require.Equal(t, order, decoded)

	_, err = DecodeOrder(encoded[:orderWireSize-1])
	require.ErrorIs(t, err, ErrInvalidInput)
}

func settleTradeInput(t *testing.T, maker, taker testTrader, makerOrder, takerOrder *Order) []byte {
	t.Helper()
	chainID := new(big.Int).SetUint64(testChainID)
	input := []byte{0x01, 0x00, 0x00, 0x00}
	input = append(input, EncodeOrder(makerOrder)...)
	input = append(input, EncodeOrder(takerOrder)...)
	input = append(input, maker.sign(t, makerOrder, chainID)...)
	input = append(input, taker.sign(t, takerOrder, chainID)...)
	return input
}

func TestRunSettleTrade(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)

	input := settleTradeInput(t, maker, taker, makerOrder, takerOrder)
	ret, remaining, err := c.Run(env, testValidator, ContractAddress, input, GasSettleTrade+1000, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), remaining)
	require.Equal(t, boolResult(true), ret)

	require.Equal(t, big.NewInt(100), token.BalanceOf(env.state, tokenA, taker.addr))
}

func TestRunWriteProtection(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)

	input := settleTradeInput(t, maker, taker, makerOrder, takerOrder)
	_, _, err := c.Run(env, testValidator, ContractAddress, input, GasSettleTrade, true)
	require.ErrorIs(t, err, contract.ErrWriteProtection)

	// Views are fine read-only.
	view := append([]byte{0x23, 0x00, 0x00, 0x00}, common.HexToHash("0x01").Bytes()...)
	ret, _, err := c.Run(env, testValidator, ContractAddress, view, GasView, true)
	require.NoError(t, err)
	require.Equal(t, boolResult(false), ret)
}

func TestRunOutOfGas(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)

	input := settleTradeInput(t, maker, taker, makerOrder, takerOrder)
	_, remaining, err := c.Run(env, testValidator, ContractAddress, input, GasSettleTrade-1, false)
	require.ErrorIs(t, err, contract.ErrOutOfGas)
	require.Zero(t, remaining)
}

func TestRunUnknownSelector(t *testing.T) {
	env, c, _, _ := newSettlementEnv(t)

	_, _, err := c.Run(env, testValidator, ContractAddress, []byte{0xff, 0xff, 0xff, 0xff}, GasView, false)
	require.Error(t, err)

	_, _, err = c.Run(env, testValidator, ContractAddress, []byte{0x01}, GasView, false)
	require.Error(t, err)
}

func TestRunViews(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	// isNonceUsed(maker, 1)
	input := []byte{0x21, 0x00, 0x00, 0x00}
	input = append(input, addrWord(maker.addr)...)
	input = append(input, u64Word(1)...)
	ret, _, err := c.Run(env, maker.addr, ContractAddress, input, GasView, true)
	require.NoError(t, err)
	require.Equal(t, boolResult(true), ret)

	// isOrderFilled(makerHash)
	makerHash := makerOrder.Digest(new(big.Int).SetUint64(testChainID), ContractAddress)
	input = append([]byte{0x23, 0x00, 0x00, 0x00}, makerHash.Bytes()...)
	ret, _, err = c.Run(env, maker.addr, ContractAddress, input, GasView, true)
	require.NoError(t, err)
	require.Equal(t, boolResult(true), ret)

	// domainSeparator()
	ret, _, err = c.Run(env, maker.addr, ContractAddress, []byte{0x27, 0x00, 0x00, 0x00}, GasView, true)
	require.NoError(t, err)
	require.Equal(t, DomainSeparator(new(big.Int).SetUint64(testChainID), ContractAddress).Bytes(), ret)

	// orderDigest(makerOrder)
	input = append([]byte{0x28, 0x00, 0x00, 0x00}, EncodeOrder(makerOrder)...)
	ret, _, err = c.Run(env, maker.addr, ContractAddress, input, GasView, true)
	require.NoError(t, err)
	require.Equal(t, makerHash.Bytes(), ret)

	// limits() reflects the pause flag.
	require.NoError(t, c.EmergencyStop(env, testAdmin))
	ret, _, err = c.Run(env, maker.addr, ContractAddress, []byte{0x26, 0x00, 0x00, 0x00}, GasView, true)
	require.NoError(t, err)
	require.Len(t, ret, 4*32)
	require.Equal(t, byte(1), ret[127])
}

func TestRunClaimFeesDispatch(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)
	makerOrder.AmountIn = big.NewInt(100_000)
	makerOrder.AmountOut = big.NewInt(200_000)
	takerOrder.AmountIn = big.NewInt(200_000)
	takerOrder.AmountOut = big.NewInt(100_000)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	input := append([]byte{0x04, 0x00, 0x00, 0x00}, addrWord(tokenA)...)
	_, _, err := c.Run(env, testGov, ContractAddress, input, GasClaimFees, false)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(70), token.BalanceOf(env.state, tokenA, testGov))
}

// fixedRootOracle publishes a single static aggregate root.
type fixedRootOracle struct {
	root common.Hash
}

func (o fixedRootOracle) CurrentRoot(contract.StateDB) common.Hash { return o.root }

func TestVerifyVolumeAggregate(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	// Two-leaf sorted-pair tree: each leaf's proof is the sibling.
	left := common.BytesToHash(crypto.Keccak256([]byte("trader-1:volume:100")))
	right := common.BytesToHash(crypto.Keccak256([]byte("trader-2:volume:200")))
	a, b := left, right
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	root := common.BytesToHash(crypto.Keccak256(a[:], b[:]))

	// Unwired oracle verifies nothing.
	require.False(t, c.VerifyVolumeAggregate(env.state, left, []common.Hash{right}))

	c.SetReputationOracle(fixedRootOracle{root: root})
	require.True(t, c.VerifyVolumeAggregate(env.state, left, []common.Hash{right}))
	require.True(t, c.VerifyVolumeAggregate(env.state, right, []common.Hash{left}))
	require.False(t, c.VerifyVolumeAggregate(env.state, left, []common.Hash{left}))

	// An unpublished (zero) root verifies nothing.
	c.SetReputationOracle(fixedRootOracle{})
	require.False(t, c.VerifyVolumeAggregate(env.state, left, []common.Hash{right}))

	// Dispatch path.
	c.SetReputationOracle(fixedRootOracle{root: root})
	input := []byte{0x2a, 0x00, 0x00, 0x00}
	input = append(input, left.Bytes()...)
	input = append(input, right.Bytes()...)
	ret, _, err := c.Run(env, maker.addr, ContractAddress, input, GasView, true)
	require.NoError(t, err)
	require.Equal(t, boolResult(true), ret)

	_, _, err = c.Run(env, maker.addr, ContractAddress, []byte{0x2a, 0x00, 0x00, 0x00, 0x01}, GasView, true)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunFeeTokens(t *testing.T) {
	env, c, maker, taker := newSettlementEnv(t)
	makerOrder, takerOrder := matchedOrders(maker, taker)
	makerOrder.AmountIn = big.NewInt(100_000)
	makerOrder.AmountOut = big.NewInt(200_000)
	takerOrder.AmountIn = big.NewInt(200_000)
	takerOrder.AmountOut = big.NewInt(100_000)
	require.NoError(t, settle(t, env, c, maker, taker, makerOrder, takerOrder))

	ret, _, err := c.Run(env, maker.addr, ContractAddress, []byte{0x29, 0x00, 0x00, 0x00}, GasView, true)
	require.NoError(t, err)
	require.Len(t, ret, 3*32)
	require.Equal(t, u64Word(2), ret[:32])
	require.Equal(t, addrWord(tokenA), ret[32:64])
	require.Equal(t, addrWord(tokenB), ret[64:96])
}
