// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Nonce bitmap: each trader owns an unbounded sequence of 256-bit words;
// bit i of word w marks nonce w*256+i used. Bits are monotonic: once set
// they are never cleared, so any of 256 nonces per word can be consumed in
// any order while replay protection stays O(1). A plain counter would force
// strictly sequential settlement of a trader's unrelated orders.

func nonceWordSlot(trader common.Address, wordIndex uint64) common.Hash {
	return contract.Slot(nsNonceWord, trader.Bytes(), u64bytes(wordIndex))
}

func nonceWord(nonce uint64) (wordIndex uint64, bit uint) {
	return nonce >> 8, uint(nonce & 0xff)
}

// IsNonceUsed reports whether [trader]'s [nonce] has been consumed.
func IsNonceUsed(state contract.StateDB, trader common.Address, nonce uint64) bool {
	wordIndex, bit := nonceWord(nonce)
	word := contract.LoadHash(state, ContractAddress, nonceWordSlot(trader, wordIndex))
	return word[31-bit/8]&(1<<(bit%8)) != 0
}

// useNonce flips [trader]'s [nonce] bit. It is an idempotent set; callers
// that must reject reuse check IsNonceUsed first.
func useNonce(state contract.StateDB, trader common.Address, nonce uint64) {
	wordIndex, bit := nonceWord(nonce)
	slot := nonceWordSlot(trader, wordIndex)
	word := contract.LoadHash(state, ContractAddress, slot)
	word[31-bit/8] |= 1 << (bit % 8)
	contract.StoreHash(state, ContractAddress, slot, word)
}

// invalidateNonceWord sets all 256 bits of [wordIndex], bulk-cancelling a
// contiguous nonce range in one write.
func invalidateNonceWord(state contract.StateDB, trader common.Address, wordIndex uint64) {
	var word common.Hash
	for i := range word {
		word[i] = 0xff
	}
	contract.StoreHash(state, ContractAddress, nonceWordSlot(trader, wordIndex), word)
}

// NonceWordBitmap returns the raw 256-bit word for inspection.
func NonceWordBitmap(state contract.StateDB, trader common.Address, wordIndex uint64) common.Hash {
	return contract.LoadHash(state, ContractAddress, nonceWordSlot(trader, wordIndex))
}
