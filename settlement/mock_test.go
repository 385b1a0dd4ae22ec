// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/token"
)

var _ contract.StateDB = (*MockStateDB)(nil)
var _ contract.AccessibleState = (*mockAccessibleState)(nil)

// MockStateDB implements contract.StateDB for testing. Unlike a plain map
// mock it supports real snapshots, since revert-on-failure is part of the
// behavior under test.
type MockStateDB struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	logs     []*ethtypes.Log

	snapshots []mockSnapshot
}

type mockSnapshot struct {
	storage map[common.Address]map[common.Hash]common.Hash
	logLen  int
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
		logs:     make([]*ethtypes.Log, 0),
	}
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SetNonce(addr common.Address, nonce uint64, _ tracing.NonceChangeReason) {
	m.nonces[addr] = nonce
}

func (m *MockStateDB) GetNonce(addr common.Address) uint64 {
	return m.nonces[addr]
}

func (m *MockStateDB) CreateAccount(common.Address) {}
func (m *MockStateDB) Exist(common.Address) bool    { return true }
func (m *MockStateDB) AddLog(log *ethtypes.Log)     { m.logs = append(m.logs, log) }
func (m *MockStateDB) Logs() []*ethtypes.Log        { return m.logs }
func (m *MockStateDB) TxHash() common.Hash          { return common.Hash{} }

func (m *MockStateDB) Snapshot() int {
	copied := make(map[common.Address]map[common.Hash]common.Hash, len(m.storage))
	for addr, slots := range m.storage {
		inner := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			inner[k] = v
		}
		copied[addr] = inner
	}
	m.snapshots = append(m.snapshots, mockSnapshot{storage: copied, logLen: len(m.logs)})
	return len(m.snapshots) - 1
}

func (m *MockStateDB) RevertToSnapshot(id int) {
	snap := m.snapshots[id]
	m.storage = snap.storage
	m.logs = m.logs[:snap.logLen]
	m.snapshots = m.snapshots[:id]
}

// hasLog reports whether any emitted log carries [topic] as its first topic.
func (m *MockStateDB) hasLog(topic common.Hash) bool {
	for _, l := range m.logs {
		if len(l.Topics) > 0 && l.Topics[0] == topic {
			return true
		}
	}
	return false
}

// mockAccessibleState wraps a MockStateDB with a controllable block context.
type mockAccessibleState struct {
	state     *MockStateDB
	blockNum  *big.Int
	timestamp uint64
}

func newMockAccessibleState() *mockAccessibleState {
	return &mockAccessibleState{
		state:     NewMockStateDB(),
		blockNum:  big.NewInt(100),
		timestamp: 1_700_000_000,
	}
}

func (a *mockAccessibleState) GetStateDB() contract.StateDB           { return a.state }
func (a *mockAccessibleState) GetBlockContext() contract.BlockContext { return a }
func (a *mockAccessibleState) Number() *big.Int                       { return a.blockNum }
func (a *mockAccessibleState) Timestamp() uint64                      { return a.timestamp }

// --- fixtures ---

var (
	tokenA        = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB        = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testValidator = common.HexToAddress("0x0000000000000000000000000000000000000077")
	testGov       = common.HexToAddress("0x0000000000000000000000000000000000000071")
	testStaking   = common.HexToAddress("0x0000000000000000000000000000000000000072")
	testAdmin     = common.HexToAddress("0x0000000000000000000000000000000000000099")
	testChainID   = uint64(96369)
)

type testTrader struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newTrader(t *testing.T) testTrader {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testTrader{key: key, addr: common.Address(crypto.PubkeyToAddress(key.PublicKey))}
}

func (tr testTrader) sign(t *testing.T, o *Order, chainID *big.Int) []byte {
	t.Helper()
	digest := o.Digest(chainID, ContractAddress)
	sig, err := crypto.Sign(digest.Bytes(), tr.key)
	require.NoError(t, err)
	return sig
}

// newSettlementEnv builds an accessible state with the settlement contract
// configured: admin, recipients, chain id, and two funded, approved traders.
func newSettlementEnv(t *testing.T) (*mockAccessibleState, *SettlementContract, testTrader, testTrader) {
	t.Helper()

	env := newMockAccessibleState()
	state := env.state
	setAdmin(state, testAdmin)
	setGovernance(state, testGov)
	setStakingPool(state, testStaking)
	setChainID(state, testChainID)

	maker := newTrader(t)
	taker := newTrader(t)

	fund(t, state, tokenA, maker.addr, big.NewInt(1_000_000))
	fund(t, state, tokenB, taker.addr, big.NewInt(1_000_000))

	return env, NewSettlementContract(), maker, taker
}

func fund(t *testing.T, state *MockStateDB, tok, holder common.Address, amount *big.Int) {
	t.Helper()
	require.NoError(t, token.Mint(state, tok, holder, amount))
	require.NoError(t, token.Approve(state, tok, holder, ContractAddress, amount))
}

// matchedOrders returns a canonical maker/taker pair: 100 tokenA against
// 200 tokenB, expiring well past the mock timestamp.
func matchedOrders(maker, taker testTrader) (*Order, *Order) {
	makerOrder := &Order{
		Trader:            maker.addr,
		IsBuy:             false,
		TokenIn:           tokenA,
		TokenOut:          tokenB,
		AmountIn:          big.NewInt(100),
		AmountOut:         big.NewInt(200),
		Price:             big.NewInt(20000),
		Deadline:          big.NewInt(1_700_100_000),
		Salt:              big.NewInt(1),
		MatchingValidator: testValidator,
		Nonce:             1,
	}
	takerOrder := &Order{
		Trader:            taker.addr,
		IsBuy:             true,
		TokenIn:           tokenB,
		TokenOut:          tokenA,
		AmountIn:          big.NewInt(200),
		AmountOut:         big.NewInt(100),
		Price:             big.NewInt(20000),
		Deadline:          big.NewInt(1_700_100_000),
		Salt:              big.NewInt(2),
		MatchingValidator: testValidator,
		Nonce:             1,
	}
	return makerOrder, takerOrder
}

func settle(t *testing.T, env *mockAccessibleState, c *SettlementContract, maker, taker testTrader, makerOrder, takerOrder *Order) error {
	t.Helper()
	chainID := new(big.Int).SetUint64(testChainID)
	return c.SettleTrade(env, testValidator, makerOrder, takerOrder,
		maker.sign(t, makerOrder, chainID), taker.sign(t, takerOrder, chainID))
}
