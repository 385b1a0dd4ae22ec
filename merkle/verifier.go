// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements inclusion-proof verification against an
// off-chain-computed merkle root. Settlement, the validator registry, and
// the reputation system all publish aggregates (volume, rewards, validator
// sets) as roots; on-chain code only ever verifies inclusion, it never
// builds the tree.
package merkle

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// ContractAddress is the address of the merkle verifier precompile
var ContractAddress = common.HexToAddress("0x0000000000000000000000000000000000000b30")

// Operation selectors (first byte of input)
const (
	OpVerify = 0x01 // verify(root, leaf, proof[])
)

// Gas costs
const (
	GasVerifyBase    uint64 = 2000 // Base cost for proof verification
	GasVerifyPerNode uint64 = 150  // Per proof node (one keccak each)
)

// MaxProofLength bounds proof depth; a 64-level tree is already larger
// than any aggregate the off-chain services publish.
const MaxProofLength = 64

var (
	ErrInvalidInput    = errors.New("invalid merkle input")
	ErrProofTooLong    = errors.New("merkle proof exceeds maximum length")
	ErrInsufficientGas = errors.New("insufficient gas")
)

// VerifyProof checks that [leaf] is included under [root] given the sibling
// hashes in [proof], ordered leaf-to-root. Pairs are hashed in sorted order
// so the prover does not need to encode left/right position bits.
func VerifyProof(root common.Hash, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a[:], b[:]))
}

// VerifierPrecompile is the stateless precompile wrapper
var VerifierPrecompile = &verifierPrecompile{}

type verifierPrecompile struct{}

// Run executes the merkle verifier.
//
// Input layout for OpVerify:
//
//	[0]      operation byte
//	[1:5]    proof node count (big-endian uint32)
//	[5:37]   root
//	[37:69]  leaf
//	[69:]    proof nodes, 32 bytes each
//
// Output: 32 bytes, last byte 1 if included, 0 otherwise.
func (p *verifierPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if len(input) < 1 {
		return nil, suppliedGas, ErrInvalidInput
	}
	if input[0] != OpVerify {
		return nil, suppliedGas, ErrInvalidInput
	}
	if len(input) < 69 {
		return nil, suppliedGas, ErrInvalidInput
	}

	count := binary.BigEndian.Uint32(input[1:5])
	if count > MaxProofLength {
		return nil, suppliedGas, ErrProofTooLong
	}

	cost := GasVerifyBase + uint64(count)*GasVerifyPerNode
	remainingGas, err := contract.DeductGas(suppliedGas, cost)
	if err != nil {
		return nil, 0, err
	}

	if len(input) != 69+int(count)*32 {
		return nil, remainingGas, ErrInvalidInput
	}

	root := common.BytesToHash(input[5:37])
	leaf := common.BytesToHash(input[37:69])
	proof := make([]common.Hash, count)
	for i := range proof {
		start := 69 + i*32
		proof[i] = common.BytesToHash(input[start : start+32])
	}

	result := make([]byte, 32)
	if VerifyProof(root, leaf, proof) {
		result[31] = 1
	}
	return result, remainingGas, nil
}
