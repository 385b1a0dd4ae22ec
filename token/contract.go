// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"encoding/binary"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Method selectors
const (
	SelectorBalanceOf    uint32 = 0x01000000 // balanceOf(address,address)
	SelectorAllowance    uint32 = 0x02000000 // allowance(address,address,address)
	SelectorApprove      uint32 = 0x03000000 // approve(address,address,uint256)
	SelectorTransfer     uint32 = 0x04000000 // transfer(address,address,uint256)
	SelectorTransferFrom uint32 = 0x05000000 // transferFrom(address,address,address,uint256)
	SelectorMint         uint32 = 0x06000000 // mint(address,address,uint256)
)

// Gas costs
const (
	GasRead     uint64 = 200
	GasApprove  uint64 = 5_000
	GasTransfer uint64 = 9_000
	GasMint     uint64 = 10_000
)

// LedgerPrecompile is the singleton instance
var LedgerPrecompile = &LedgerContract{}

// LedgerContract implements the token ledger precompile
type LedgerContract struct{}

// Run executes the token ledger precompile. Arguments are packed as
// consecutive 32-byte words: addresses right-aligned, amounts big-endian.
func (c *LedgerContract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, suppliedGas, contract.ErrInvalidInput
	}

	selector := binary.BigEndian.Uint32(input[:4])
	args := input[4:]
	state := accessibleState.GetStateDB()

	switch selector {
	case SelectorBalanceOf:
		remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
		if err != nil {
			return nil, 0, err
		}
		tok, holder, err := twoAddresses(args)
		if err != nil {
			return nil, remainingGas, err
		}
		return common.BigToHash(BalanceOf(state, tok, holder)).Bytes(), remainingGas, nil

	case SelectorAllowance:
		remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
		if err != nil {
			return nil, 0, err
		}
		if len(args) < 96 {
			return nil, remainingGas, contract.ErrInvalidInput
		}
		tok := wordAddress(args, 0)
		owner := wordAddress(args, 1)
		spender := wordAddress(args, 2)
		return common.BigToHash(Allowance(state, tok, owner, spender)).Bytes(), remainingGas, nil

	case SelectorApprove:
		remainingGas, err := contract.DeductGas(suppliedGas, GasApprove)
		if err != nil {
			return nil, 0, err
		}
		if readOnly {
			return nil, remainingGas, contract.ErrWriteProtection
		}
		if len(args) < 96 {
			return nil, remainingGas, contract.ErrInvalidInput
		}
		tok := wordAddress(args, 0)
		spender := wordAddress(args, 1)
		amount := wordBig(args, 2)
		return nil, remainingGas, Approve(state, tok, caller, spender, amount)

	case SelectorTransfer:
		remainingGas, err := contract.DeductGas(suppliedGas, GasTransfer)
		if err != nil {
			return nil, 0, err
		}
		if readOnly {
			return nil, remainingGas, contract.ErrWriteProtection
		}
		if len(args) < 96 {
			return nil, remainingGas, contract.ErrInvalidInput
		}
		tok := wordAddress(args, 0)
		to := wordAddress(args, 1)
		amount := wordBig(args, 2)
		return nil, remainingGas, Transfer(state, tok, caller, to, amount)

	case SelectorTransferFrom:
		remainingGas, err := contract.DeductGas(suppliedGas, GasTransfer)
		if err != nil {
			return nil, 0, err
		}
		if readOnly {
			return nil, remainingGas, contract.ErrWriteProtection
		}
		if len(args) < 128 {
			return nil, remainingGas, contract.ErrInvalidInput
		}
		tok := wordAddress(args, 0)
		from := wordAddress(args, 1)
		to := wordAddress(args, 2)
		amount := wordBig(args, 3)
		return nil, remainingGas, TransferFrom(state, tok, caller, from, to, amount)

	case SelectorMint:
		remainingGas, err := contract.DeductGas(suppliedGas, GasMint)
		if err != nil {
			return nil, 0, err
		}
		if readOnly {
			return nil, remainingGas, contract.ErrWriteProtection
		}
		if !IsAdmin(state, caller) {
			return nil, remainingGas, ErrUnauthorized
		}
		if len(args) < 96 {
			return nil, remainingGas, contract.ErrInvalidInput
		}
		tok := wordAddress(args, 0)
		to := wordAddress(args, 1)
		amount := wordBig(args, 2)
		return nil, remainingGas, Mint(state, tok, to, amount)

	default:
		return nil, suppliedGas, contract.ErrInvalidInput
	}
}

func wordAddress(args []byte, i int) common.Address {
	return common.BytesToAddress(args[i*32+12 : i*32+32])
}

func wordBig(args []byte, i int) *big.Int {
	return new(big.Int).SetBytes(args[i*32 : i*32+32])
}

func twoAddresses(args []byte) (common.Address, common.Address, error) {
	if len(args) < 64 {
		return common.Address{}, common.Address{}, contract.ErrInvalidInput
	}
	return wordAddress(args, 0), wordAddress(args, 1), nil
}
