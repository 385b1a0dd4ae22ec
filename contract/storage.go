// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"encoding/binary"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Slot derives a storage slot from a namespace string and composite key
// parts. Namespacing keeps independent stores inside one contract account
// from colliding.
func Slot(namespace string, parts ...[]byte) common.Hash {
	h := blake3.New()
	h.Write([]byte(namespace))
	for _, p := range parts {
		h.Write(p)
	}

	var slot common.Hash
	h.Digest().Read(slot[:])
	return slot
}

// Typed slot accessors. Scalar values carry an explicit-set marker in byte 0
// so a zero value can be told apart from a never-written slot.

func StoreUint64(state StateDB, addr common.Address, slot common.Hash, v uint64) {
	var val common.Hash
	val[0] = 1
	binary.BigEndian.PutUint64(val[24:], v)
	state.SetState(addr, slot, val)
}

func LoadUint64(state StateDB, addr common.Address, slot common.Hash) (uint64, bool) {
	val := state.GetState(addr, slot)
	if val[0] == 0 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val[24:]), true
}

func StoreBool(state StateDB, addr common.Address, slot common.Hash, v bool) {
	var val common.Hash
	val[0] = 1
	if v {
		val[31] = 1
	}
	state.SetState(addr, slot, val)
}

func LoadBool(state StateDB, addr common.Address, slot common.Hash) bool {
	val := state.GetState(addr, slot)
	return val[0] != 0 && val[31] != 0
}

func StoreAddress(state StateDB, addr common.Address, slot common.Hash, v common.Address) {
	var val common.Hash
	copy(val[12:], v.Bytes())
	state.SetState(addr, slot, val)
}

func LoadAddress(state StateDB, addr common.Address, slot common.Hash) common.Address {
	val := state.GetState(addr, slot)
	return common.BytesToAddress(val[12:])
}

func StoreHash(state StateDB, addr common.Address, slot common.Hash, v common.Hash) {
	state.SetState(addr, slot, v)
}

func LoadHash(state StateDB, addr common.Address, slot common.Hash) common.Hash {
	return state.GetState(addr, slot)
}

// StoreBig stores a non-negative big.Int occupying at most 32 bytes.
func StoreBig(state StateDB, addr common.Address, slot common.Hash, v *big.Int) {
	state.SetState(addr, slot, common.BigToHash(v))
}

func LoadBig(state StateDB, addr common.Address, slot common.Hash) *big.Int {
	val := state.GetState(addr, slot)
	return new(big.Int).SetBytes(val[:])
}
