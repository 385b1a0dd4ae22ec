// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// EIP-712 domain constants. The struct type string must match external
// signers byte-for-byte or their signatures will not verify.
const (
	EIP712DomainName    = "OmniBazaar DEX Settlement"
	EIP712DomainVersion = "1"
)

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	eip712DomainTypeHash = common.BytesToHash(crypto.Keccak256([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	)))

	// Order(address trader,bool isBuy,address tokenIn,address tokenOut,uint256 amountIn,uint256 amountOut,uint256 price,uint256 deadline,uint256 salt,address matchingValidator,uint256 nonce)
	orderTypeHash = common.BytesToHash(crypto.Keccak256([]byte(
		"Order(address trader,bool isBuy,address tokenIn,address tokenOut,uint256 amountIn,uint256 amountOut,uint256 price,uint256 deadline,uint256 salt,address matchingValidator,uint256 nonce)",
	)))
)

var (
	abiBytes32, _ = abi.NewType("bytes32", "", nil)
	abiUint256, _ = abi.NewType("uint256", "", nil)
	abiAddress, _ = abi.NewType("address", "", nil)
	abiBool, _    = abi.NewType("bool", "", nil)
)

// DomainSeparator computes the EIP-712 domain hash binding signatures to
// this chain and contract address.
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	nameHash := common.BytesToHash(crypto.Keccak256([]byte(EIP712DomainName)))
	versionHash := common.BytesToHash(crypto.Keccak256([]byte(EIP712DomainVersion)))

	arguments := abi.Arguments{
		{Type: abiBytes32}, // typeHash
		{Type: abiBytes32}, // nameHash
		{Type: abiBytes32}, // versionHash
		{Type: abiUint256}, // chainId
		{Type: abiAddress}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		eip712DomainTypeHash,
		nameHash,
		versionHash,
		chainID,
		verifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return common.BytesToHash(crypto.Keccak256(encoded))
}

// StructHash computes the typed-data struct hash of [o]. Field ordering is
// fixed by the type string above and must never change.
func (o *Order) StructHash() common.Hash {
	arguments := abi.Arguments{
		{Type: abiBytes32}, // typeHash
		{Type: abiAddress}, // trader
		{Type: abiBool},    // isBuy
		{Type: abiAddress}, // tokenIn
		{Type: abiAddress}, // tokenOut
		{Type: abiUint256}, // amountIn
		{Type: abiUint256}, // amountOut
		{Type: abiUint256}, // price
		{Type: abiUint256}, // deadline
		{Type: abiUint256}, // salt
		{Type: abiAddress}, // matchingValidator
		{Type: abiUint256}, // nonce
	}

	encoded, err := arguments.Pack(
		orderTypeHash,
		o.Trader,
		o.IsBuy,
		o.TokenIn,
		o.TokenOut,
		o.AmountIn,
		o.AmountOut,
		o.Price,
		o.Deadline,
		o.Salt,
		o.MatchingValidator,
		new(big.Int).SetUint64(o.Nonce),
	)
	if err != nil {
		panic("failed to encode order struct: " + err.Error())
	}

	return common.BytesToHash(crypto.Keccak256(encoded))
}

// Digest computes the final EIP-712 signing hash:
// keccak256("\x19\x01" ++ domainSeparator ++ structHash).
func (o *Order) Digest(chainID *big.Int, verifyingContract common.Address) common.Hash {
	domainSeparator := DomainSeparator(chainID, verifyingContract)
	structHash := o.StructHash()

	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, domainSeparator.Bytes()...)
	data = append(data, structHash.Bytes()...)

	return common.BytesToHash(crypto.Keccak256(data))
}

// RecoverSigner recovers the signer of a 65-byte [R||S||V] signature over
// [digest]. V may be 0/1 or 27/28.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, ErrInvalidSignature
	}

	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return common.Address(crypto.PubkeyToAddress(*pub)), nil
}

// VerifyOrderSignature checks [sig] was produced by the order's trader.
func VerifyOrderSignature(o *Order, sig []byte, chainID *big.Int, verifyingContract common.Address) error {
	signer, err := RecoverSigner(o.Digest(chainID, verifyingContract), sig)
	if err != nil {
		return err
	}
	if signer != o.Trader {
		return ErrInvalidSignature
	}
	return nil
}
