// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry documents the precompile address scheme of the
// OmniBazaar marketplace suite.
package registry

import (
	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME
// ============================================================================
//
// All OmniBazaar precompiles use trailing-significant 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000000bII
//
// The 0x0b page is reserved for the marketplace suite. The II byte selects
// the module family:
//   0x10-0x1f: DEX settlement
//   0x20-0x2f: token ledger
//   0x30-0x3f: merkle verification
//   0x40-0x4f: validator registry (external service, address reserved)
//   0x50-0x5f: reputation / identity (external service, address reserved)
//   0x60-0x6f: NFT factory / staking / lending (external, reserved)

const (
	// Implemented in this repository
	DEXSettlementAddress  = "0x0000000000000000000000000000000000000b10"
	TokenLedgerAddress    = "0x0000000000000000000000000000000000000b20"
	MerkleVerifierAddress = "0x0000000000000000000000000000000000000b30"

	// External collaborators; addresses reserved so the settlement core can
	// reference them, implementations live outside this repository.
	ValidatorRegistryAddress = "0x0000000000000000000000000000000000000b40"
	ReputationAddress        = "0x0000000000000000000000000000000000000b50"
	NFTFactoryAddress        = "0x0000000000000000000000000000000000000b60"
	NFTStakingAddress        = "0x0000000000000000000000000000000000000b61"
	NFTLendingAddress        = "0x0000000000000000000000000000000000000b62"
)

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	External    bool
}

// AllPrecompiles lists all suite precompiles with their metadata
var AllPrecompiles = []PrecompileInfo{
	{DEXSettlementAddress, "DEX_SETTLEMENT", "Signed-order atomic trade settlement", 25000, false},
	{TokenLedgerAddress, "TOKEN_LEDGER", "Multi-token balance and allowance ledger", 5000, false},
	{MerkleVerifierAddress, "MERKLE_VERIFIER", "Merkle inclusion proof verification", 2000, false},
	{ValidatorRegistryAddress, "VALIDATOR_REGISTRY", "Validator staking and slashing", 25000, true},
	{ReputationAddress, "REPUTATION", "Reputation merkle-root publishing", 10000, true},
	{NFTFactoryAddress, "NFT_FACTORY", "NFT collection factory", 50000, true},
	{NFTStakingAddress, "NFT_STAKING", "NFT staking", 25000, true},
	{NFTLendingAddress, "NFT_LENDING", "NFT-collateralized lending", 25000, true},
}

// GetPrecompileAddress returns the address for a precompile by name
func GetPrecompileAddress(name string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}

// Implemented reports whether [addr] is a precompile implemented in this
// repository, as opposed to a reserved external collaborator address.
func Implemented(addr common.Address) bool {
	for _, p := range AllPrecompiles {
		if !p.External && common.HexToAddress(p.Address) == addr {
			return true
		}
	}
	return false
}
