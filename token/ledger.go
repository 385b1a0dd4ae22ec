// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the multi-token balance ledger backing the
// marketplace suite. Balances and allowances for every tracked token live
// in this precompile's storage, keyed by (token, holder); the settlement
// core moves value through the exported Go API, external callers go through
// the selector facade in contract.go.
package token

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// ContractAddress is the address of the token ledger precompile
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000000b20")

var (
	ErrZeroAddress           = errors.New("zero address")
	ErrZeroAmount            = errors.New("zero amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrBalanceOverflow       = errors.New("balance overflow")
	ErrUnauthorized          = errors.New("unauthorized: caller is not admin")
)

// Storage namespaces
const (
	nsBalance   = "token.balance"
	nsAllowance = "token.allowance"
	nsAdmin     = "token.admin"
)

func balanceSlot(token, holder common.Address) common.Hash {
	return contract.Slot(nsBalance, token.Bytes(), holder.Bytes())
}

func allowanceSlot(token, owner, spender common.Address) common.Hash {
	return contract.Slot(nsAllowance, token.Bytes(), owner.Bytes(), spender.Bytes())
}

// BalanceOf returns the ledger balance of [holder] for [token].
func BalanceOf(state contract.StateDB, token, holder common.Address) *big.Int {
	return contract.LoadBig(state, ContractAddress, balanceSlot(token, holder))
}

// Allowance returns how much [spender] may transfer out of [owner].
func Allowance(state contract.StateDB, token, owner, spender common.Address) *big.Int {
	return contract.LoadBig(state, ContractAddress, allowanceSlot(token, owner, spender))
}

// Approve sets [spender]'s allowance over [owner]'s balance of [token].
func Approve(state contract.StateDB, token, owner, spender common.Address, amount *big.Int) error {
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	contract.StoreBig(state, ContractAddress, allowanceSlot(token, owner, spender), amount)
	return nil
}

// Transfer moves [amount] of [token] from [from] to [to].
func Transfer(state contract.StateDB, token, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	fromBal := BalanceOf(state, token, from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	toBal := BalanceOf(state, token, to)
	newToBal := new(big.Int).Add(toBal, amount)
	if _, overflow := uint256.FromBig(newToBal); overflow {
		return ErrBalanceOverflow
	}

	contract.StoreBig(state, ContractAddress, balanceSlot(token, from), new(big.Int).Sub(fromBal, amount))
	contract.StoreBig(state, ContractAddress, balanceSlot(token, to), newToBal)
	return nil
}

// TransferFrom moves [amount] of [token] from [from] to [to] on behalf of
// [spender], consuming allowance.
func TransferFrom(state contract.StateDB, token, spender, from, to common.Address, amount *big.Int) error {
	if spender != from {
		allowed := Allowance(state, token, from, spender)
		if allowed.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		if err := Transfer(state, token, from, to, amount); err != nil {
			return err
		}
		contract.StoreBig(state, ContractAddress, allowanceSlot(token, from, spender), new(big.Int).Sub(allowed, amount))
		return nil
	}
	return Transfer(state, token, from, to, amount)
}

// Mint credits [amount] of [token] to [to]. The selector facade gates this
// behind the ledger admin; the Go API is open for genesis allocation.
func Mint(state contract.StateDB, token, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	bal := BalanceOf(state, token, to)
	newBal := new(big.Int).Add(bal, amount)
	if _, overflow := uint256.FromBig(newBal); overflow {
		return ErrBalanceOverflow
	}
	contract.StoreBig(state, ContractAddress, balanceSlot(token, to), newBal)
	return nil
}

func adminSlot() common.Hash {
	return contract.Slot(nsAdmin)
}

// Admin returns the ledger admin address.
func Admin(state contract.StateDB) common.Address {
	return contract.LoadAddress(state, ContractAddress, adminSlot())
}

// SetAdmin sets the ledger admin. An unset admin allows the first caller,
// which is how genesis configuration bootstraps the role.
func SetAdmin(state contract.StateDB, admin common.Address) {
	contract.StoreAddress(state, ContractAddress, adminSlot(), admin)
}

// IsAdmin reports whether [caller] holds the admin role.
func IsAdmin(state contract.StateDB, caller common.Address) bool {
	admin := Admin(state)
	if admin == (common.Address{}) {
		return true
	}
	return caller == admin
}
