// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
	"github.com/omnibazaar/precompile/token"
)

// TokenBackend is the ERC-20-equivalent surface the executor moves value
// through. The token ledger precompile is the default; tests substitute
// misbehaving tokens to exercise the fee-on-transfer guard.
type TokenBackend interface {
	BalanceOf(state contract.StateDB, tok, holder common.Address) *big.Int
	Allowance(state contract.StateDB, tok, owner, spender common.Address) *big.Int
	// TransferFrom moves value on behalf of [spender]; spender == from
	// skips the allowance check, which is how the contract pays out its
	// own escrow and fee balances.
	TransferFrom(state contract.StateDB, tok, spender, from, to common.Address, amount *big.Int) error
}

// ValidatorRegistry is the consumed interface of the (external) validator
// registry precompile. A nil registry disables the check; the settlement
// core never implements staking or slashing itself.
type ValidatorRegistry interface {
	IsActiveValidator(state contract.StateDB, validator common.Address) bool
}

// ReputationOracle is the consumed interface of the (external) reputation
// system: a published merkle root per epoch that volume/reward aggregates
// are verified against.
type ReputationOracle interface {
	CurrentRoot(state contract.StateDB) common.Hash
}

// ledgerBackend adapts the token ledger precompile to TokenBackend.
type ledgerBackend struct{}

func (ledgerBackend) BalanceOf(state contract.StateDB, tok, holder common.Address) *big.Int {
	return token.BalanceOf(state, tok, holder)
}

func (ledgerBackend) Allowance(state contract.StateDB, tok, owner, spender common.Address) *big.Int {
	return token.Allowance(state, tok, owner, spender)
}

func (ledgerBackend) TransferFrom(state contract.StateDB, tok, spender, from, to common.Address, amount *big.Int) error {
	return token.TransferFrom(state, tok, spender, from, to, amount)
}
