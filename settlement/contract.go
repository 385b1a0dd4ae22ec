// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

var _ contract.StatefulPrecompiledContract = (*SettlementContract)(nil)

// Method selectors
const (
	SelectorSettleTrade           uint32 = 0x01000000 // settleTrade(Order,Order,bytes,bytes)
	SelectorCommitOrder           uint32 = 0x02000000 // commitOrder(bytes32)
	SelectorRevealOrder           uint32 = 0x03000000 // revealOrder(Order)
	SelectorClaimFees             uint32 = 0x04000000 // claimFees(address)
	SelectorInvalidateNonce       uint32 = 0x05000000 // invalidateNonce(uint256)
	SelectorInvalidateNonceWord   uint32 = 0x06000000 // invalidateNonceWord(uint256)
	SelectorLockIntentCollateral  uint32 = 0x07000000 // lockIntentCollateral(bytes32,address,address,address,uint256,uint256,uint256)
	SelectorSettleIntent          uint32 = 0x08000000 // settleIntent(bytes32)
	SelectorCancelIntent          uint32 = 0x09000000 // cancelIntent(bytes32)
	SelectorScheduleFeeRecipients uint32 = 0x0a000000 // scheduleFeeRecipients(address,address)
	SelectorApplyFeeRecipients    uint32 = 0x0b000000 // applyFeeRecipients()
	SelectorScheduleTradingLimits uint32 = 0x0c000000 // scheduleTradingLimits(uint256,uint256,uint256)
	SelectorApplyTradingLimits    uint32 = 0x0d000000 // applyTradingLimits()
	SelectorEmergencyStop         uint32 = 0x0e000000 // emergencyStop()
	SelectorEmergencyResume       uint32 = 0x0f000000 // emergencyResume()

	SelectorFeeBalance      uint32 = 0x20000000 // feeBalance(address,address)
	SelectorIsNonceUsed     uint32 = 0x21000000 // isNonceUsed(address,uint256)
	SelectorNonceWordBitmap uint32 = 0x22000000 // nonceWordBitmap(address,uint256)
	SelectorIsOrderFilled   uint32 = 0x23000000 // isOrderFilled(bytes32)
	SelectorGetCommitment   uint32 = 0x24000000 // getCommitment(address,bytes32)
	SelectorGetIntent       uint32 = 0x25000000 // getIntent(bytes32)
	SelectorGetLimits       uint32 = 0x26000000 // limits()
	SelectorDomainSeparator uint32 = 0x27000000 // domainSeparator()
	SelectorOrderDigest     uint32 = 0x28000000 // orderDigest(Order)
	SelectorFeeTokens       uint32 = 0x29000000 // feeTokens()
	SelectorVerifyVolume    uint32 = 0x2a000000 // verifyVolumeAggregate(bytes32,bytes32[])
)

// Order wire format: eleven 32-byte words, in EIP-712 field order.
const orderWireSize = 11 * 32

const sigSize = 65

// EncodeOrder packs [o] into the fixed wire layout.
func EncodeOrder(o *Order) []byte {
	return packWords(
		addrWord(o.Trader),
		boolWord(o.IsBuy),
		addrWord(o.TokenIn),
		addrWord(o.TokenOut),
		bigWord(o.AmountIn),
		bigWord(o.AmountOut),
		bigWord(o.Price),
		bigWord(o.Deadline),
		bigWord(o.Salt),
		addrWord(o.MatchingValidator),
		u64Word(o.Nonce),
	)
}

// DecodeOrder parses the fixed wire layout back into an Order.
func DecodeOrder(input []byte) (*Order, error) {
	if len(input) != orderWireSize {
		return nil, ErrInvalidInput
	}

	word := func(i int) []byte { return input[i*32 : (i+1)*32] }

	nonce := new(big.Int).SetBytes(word(10))
	if !nonce.IsUint64() {
		return nil, ErrInvalidInput
	}

	return &Order{
		Trader:            common.BytesToAddress(word(0)),
		IsBuy:             word(1)[31] != 0,
		TokenIn:           common.BytesToAddress(word(2)),
		TokenOut:          common.BytesToAddress(word(3)),
		AmountIn:          new(big.Int).SetBytes(word(4)),
		AmountOut:         new(big.Int).SetBytes(word(5)),
		Price:             new(big.Int).SetBytes(word(6)),
		Deadline:          new(big.Int).SetBytes(word(7)),
		Salt:              new(big.Int).SetBytes(word(8)),
		MatchingValidator: common.BytesToAddress(word(9)),
		Nonce:             nonce.Uint64(),
	}, nil
}

func boolWord(v bool) []byte {
	var w [32]byte
	if v {
		w[31] = 1
	}
	return w[:]
}

func boolResult(v bool) []byte {
	return boolWord(v)
}

// IsOrderFilled reports whether the order identified by [orderHash] has
// been settled.
func IsOrderFilled(state contract.StateDB, orderHash common.Hash) bool {
	return isFilled(state, orderHash)
}

// Run executes the settlement precompile.
func (c *SettlementContract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	if len(input) < 4 {
		return nil, suppliedGas, fmt.Errorf("input too short")
	}

	selector := binary.BigEndian.Uint32(input[:4])
	data := input[4:]

	if readOnly && selector < SelectorFeeBalance {
		return nil, suppliedGas, contract.ErrWriteProtection
	}

	switch selector {
	case SelectorSettleTrade:
		return c.runSettleTrade(accessibleState, caller, data, suppliedGas)
	case SelectorCommitOrder:
		return c.runCommitOrder(accessibleState, caller, data, suppliedGas)
	case SelectorRevealOrder:
		return c.runRevealOrder(accessibleState, caller, data, suppliedGas)
	case SelectorClaimFees:
		return c.runClaimFees(accessibleState, caller, data, suppliedGas)
	case SelectorInvalidateNonce:
		return c.runInvalidateNonce(accessibleState, caller, data, suppliedGas)
	case SelectorInvalidateNonceWord:
		return c.runInvalidateNonceWord(accessibleState, caller, data, suppliedGas)
	case SelectorLockIntentCollateral:
		return c.runLockIntentCollateral(accessibleState, caller, data, suppliedGas)
	case SelectorSettleIntent:
		return c.runSettleIntent(accessibleState, caller, data, suppliedGas)
	case SelectorCancelIntent:
		return c.runCancelIntent(accessibleState, caller, data, suppliedGas)
	case SelectorScheduleFeeRecipients:
		return c.runScheduleFeeRecipients(accessibleState, caller, data, suppliedGas)
	case SelectorApplyFeeRecipients:
		return c.runApplyFeeRecipients(accessibleState, caller, suppliedGas)
	case SelectorScheduleTradingLimits:
		return c.runScheduleTradingLimits(accessibleState, caller, data, suppliedGas)
	case SelectorApplyTradingLimits:
		return c.runApplyTradingLimits(accessibleState, caller, suppliedGas)
	case SelectorEmergencyStop:
		return c.runEmergency(accessibleState, caller, suppliedGas, true)
	case SelectorEmergencyResume:
		return c.runEmergency(accessibleState, caller, suppliedGas, false)
	case SelectorFeeBalance, SelectorIsNonceUsed, SelectorNonceWordBitmap,
		SelectorIsOrderFilled, SelectorGetCommitment, SelectorGetIntent,
		SelectorGetLimits, SelectorDomainSeparator, SelectorOrderDigest,
		SelectorFeeTokens, SelectorVerifyVolume:
		return c.runView(accessibleState, selector, data, suppliedGas)
	default:
		return nil, suppliedGas, fmt.Errorf("unknown method selector: %x", selector)
	}
}

func (c *SettlementContract) runSettleTrade(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasSettleTrade)
	if err != nil {
		return nil, 0, err
	}

	if len(input) != 2*orderWireSize+2*sigSize {
		return nil, remainingGas, ErrInvalidInput
	}

	maker, err := DecodeOrder(input[:orderWireSize])
	if err != nil {
		return nil, remainingGas, err
	}
	taker, err := DecodeOrder(input[orderWireSize : 2*orderWireSize])
	if err != nil {
		return nil, remainingGas, err
	}
	makerSig := input[2*orderWireSize : 2*orderWireSize+sigSize]
	takerSig := input[2*orderWireSize+sigSize:]

	if err := c.SettleTrade(accessibleState, caller, maker, taker, makerSig, takerSig); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runCommitOrder(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasCommitOrder)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 32 {
		return nil, remainingGas, ErrInvalidInput
	}

	if err := c.CommitOrder(accessibleState, caller, common.BytesToHash(input)); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runRevealOrder(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasRevealOrder)
	if err != nil {
		return nil, 0, err
	}

	order, err := DecodeOrder(input)
	if err != nil {
		return nil, remainingGas, err
	}
	if err := c.RevealOrder(accessibleState, caller, order); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runClaimFees(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasClaimFees)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 32 {
		return nil, remainingGas, ErrInvalidInput
	}

	if err := c.ClaimFees(accessibleState, caller, common.BytesToAddress(input)); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runInvalidateNonce(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasInvalidateNonce)
	if err != nil {
		return nil, 0, err
	}
	nonce, err := u64Arg(input)
	if err != nil {
		return nil, remainingGas, err
	}

	if err := c.InvalidateNonce(accessibleState, caller, nonce); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runInvalidateNonceWord(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasInvalidateWord)
	if err != nil {
		return nil, 0, err
	}
	wordIndex, err := u64Arg(input)
	if err != nil {
		return nil, remainingGas, err
	}

	if err := c.InvalidateNonceWord(accessibleState, caller, wordIndex); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runLockIntentCollateral(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasLockIntent)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 7*32 {
		return nil, remainingGas, ErrInvalidInput
	}

	word := func(i int) []byte { return input[i*32 : (i+1)*32] }
	deadline, err := u64Arg(word(6))
	if err != nil {
		return nil, remainingGas, err
	}

	err = c.LockIntentCollateral(accessibleState, caller,
		common.BytesToHash(word(0)),
		common.BytesToAddress(word(1)),
		common.BytesToAddress(word(2)),
		common.BytesToAddress(word(3)),
		new(big.Int).SetBytes(word(4)),
		new(big.Int).SetBytes(word(5)),
		deadline,
	)
	if err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runSettleIntent(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasSettleIntent)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 32 {
		return nil, remainingGas, ErrInvalidInput
	}

	if err := c.SettleIntent(accessibleState, caller, common.BytesToHash(input)); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runCancelIntent(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasCancelIntent)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 32 {
		return nil, remainingGas, ErrInvalidInput
	}

	if err := c.CancelIntent(accessibleState, caller, common.BytesToHash(input)); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runScheduleFeeRecipients(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 64 {
		return nil, remainingGas, ErrInvalidInput
	}

	err = c.ScheduleFeeRecipients(accessibleState, caller,
		common.BytesToAddress(input[:32]),
		common.BytesToAddress(input[32:]),
	)
	if err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runApplyFeeRecipients(
	accessibleState contract.AccessibleState,
	caller common.Address,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}

	if err := c.ApplyFeeRecipients(accessibleState, caller); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runScheduleTradingLimits(
	accessibleState contract.AccessibleState,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}
	if len(input) != 3*32 {
		return nil, remainingGas, ErrInvalidInput
	}

	slippage, err := u64Arg(input[64:])
	if err != nil {
		return nil, remainingGas, err
	}

	err = c.ScheduleTradingLimits(accessibleState, caller, TradingLimits{
		MaxTradeSize:     new(big.Int).SetBytes(input[:32]),
		DailyVolumeLimit: new(big.Int).SetBytes(input[32:64]),
		MaxSlippageBps:   slippage,
	})
	if err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runApplyTradingLimits(
	accessibleState contract.AccessibleState,
	caller common.Address,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}

	if err := c.ApplyTradingLimits(accessibleState, caller); err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runEmergency(
	accessibleState contract.AccessibleState,
	caller common.Address,
	suppliedGas uint64,
	stop bool,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}

	if stop {
		err = c.EmergencyStop(accessibleState, caller)
	} else {
		err = c.EmergencyResume(accessibleState, caller)
	}
	if err != nil {
		return nil, remainingGas, err
	}
	return boolResult(true), remainingGas, nil
}

func (c *SettlementContract) runView(
	accessibleState contract.AccessibleState,
	selector uint32,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasView)
	if err != nil {
		return nil, 0, err
	}
	state := accessibleState.GetStateDB()

	switch selector {
	case SelectorFeeBalance:
		if len(input) != 64 {
			return nil, remainingGas, ErrInvalidInput
		}
		balance := FeeBalance(state, common.BytesToAddress(input[:32]), common.BytesToAddress(input[32:]))
		return bigWord(balance), remainingGas, nil

	case SelectorIsNonceUsed:
		if len(input) != 64 {
			return nil, remainingGas, ErrInvalidInput
		}
		nonce, err := u64Arg(input[32:])
		if err != nil {
			return nil, remainingGas, err
		}
		return boolResult(IsNonceUsed(state, common.BytesToAddress(input[:32]), nonce)), remainingGas, nil

	case SelectorNonceWordBitmap:
		if len(input) != 64 {
			return nil, remainingGas, ErrInvalidInput
		}
		wordIndex, err := u64Arg(input[32:])
		if err != nil {
			return nil, remainingGas, err
		}
		return NonceWordBitmap(state, common.BytesToAddress(input[:32]), wordIndex).Bytes(), remainingGas, nil

	case SelectorIsOrderFilled:
		if len(input) != 32 {
			return nil, remainingGas, ErrInvalidInput
		}
		return boolResult(isFilled(state, common.BytesToHash(input))), remainingGas, nil

	case SelectorGetCommitment:
		if len(input) != 64 {
			return nil, remainingGas, ErrInvalidInput
		}
		commitment := GetCommitment(state, common.BytesToAddress(input[:32]), common.BytesToHash(input[32:]))
		return packWords(
			u64Word(commitment.CommitBlock),
			boolWord(commitment.Revealed),
			boolWord(commitment.Exists),
		), remainingGas, nil

	case SelectorGetIntent:
		if len(input) != 32 {
			return nil, remainingGas, ErrInvalidInput
		}
		intent := GetIntent(state, common.BytesToHash(input))
		return packWords(
			addrWord(intent.Trader),
			addrWord(intent.Solver),
			addrWord(intent.TokenIn),
			addrWord(intent.TokenOut),
			bigWord(intent.TraderAmount),
			bigWord(intent.SolverAmount),
			u64Word(intent.Deadline),
			boolWord(intent.Locked),
			boolWord(intent.Settled),
			boolWord(intent.Cancelled),
			boolWord(intent.Exists),
		), remainingGas, nil

	case SelectorGetLimits:
		limits := getLimits(state)
		return packWords(
			bigWord(limits.MaxTradeSize),
			bigWord(limits.DailyVolumeLimit),
			u64Word(limits.MaxSlippageBps),
			boolWord(isPaused(state)),
		), remainingGas, nil

	case SelectorDomainSeparator:
		return DomainSeparator(getChainID(state), ContractAddress).Bytes(), remainingGas, nil

	case SelectorOrderDigest:
		order, err := DecodeOrder(input)
		if err != nil {
			return nil, remainingGas, err
		}
		return order.Digest(getChainID(state), ContractAddress).Bytes(), remainingGas, nil

	case SelectorFeeTokens:
		toks := FeeTokens(state)
		words := make([][]byte, 0, len(toks)+1)
		words = append(words, u64Word(uint64(len(toks))))
		for _, tok := range toks {
			words = append(words, addrWord(tok))
		}
		return packWords(words...), remainingGas, nil

	case SelectorVerifyVolume:
		if len(input) < 32 || len(input)%32 != 0 {
			return nil, remainingGas, ErrInvalidInput
		}
		leaf := common.BytesToHash(input[:32])
		proof := make([]common.Hash, 0, (len(input)-32)/32)
		for off := 32; off < len(input); off += 32 {
			proof = append(proof, common.BytesToHash(input[off:off+32]))
		}
		return boolResult(c.VerifyVolumeAggregate(state, leaf, proof)), remainingGas, nil

	default:
		return nil, remainingGas, fmt.Errorf("unknown method selector: %x", selector)
	}
}

// u64Arg parses a 32-byte word that must fit in a uint64.
func u64Arg(word []byte) (uint64, error) {
	if len(word) != 32 {
		return 0, ErrInvalidInput
	}
	v := new(big.Int).SetBytes(word)
	if !v.IsUint64() {
		return 0, ErrInvalidInput
	}
	return v.Uint64(), nil
}
