// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
)

// Optional off-consensus trade archive. When a node operator wires a
// database here, every settled trade is appended to it for indexer and
// audit queries. Archive writes never affect settlement outcome: the
// StateDB is the source of truth, the archive is a convenience copy.

var (
	archiveMu    sync.RWMutex
	tradeArchive database.Database
)

// SetTradeArchive wires the node's trade history database. Pass nil to
// disable archiving.
func SetTradeArchive(db database.Database) {
	archiveMu.Lock()
	defer archiveMu.Unlock()
	tradeArchive = db
}

func archiveKey(makerHash, takerHash common.Hash) []byte {
	key := make([]byte, 0, 2*common.HashLength)
	key = append(key, makerHash.Bytes()...)
	key = append(key, takerHash.Bytes()...)
	return key
}

// archiveRecord is the stored value: both orders in wire form, then the
// settler address and the settlement timestamp.
func archiveRecord(maker, taker *Order, settler common.Address, timestamp uint64) []byte {
	record := make([]byte, 0, 2*orderWireSize+32+32)
	record = append(record, EncodeOrder(maker)...)
	record = append(record, EncodeOrder(taker)...)
	record = append(record, addrWord(settler)...)
	record = append(record, u64Word(timestamp)...)
	return record
}

func (c *SettlementContract) archiveTrade(
	makerHash, takerHash common.Hash,
	maker, taker *Order,
	settler common.Address,
	timestamp uint64,
) {
	archiveMu.RLock()
	db := tradeArchive
	archiveMu.RUnlock()
	if db == nil {
		return
	}

	if err := db.Put(archiveKey(makerHash, takerHash), archiveRecord(maker, taker, settler, timestamp)); err != nil {
		c.log.Error("trade archive write failed",
			"makerHash", makerHash.Hex(),
			"takerHash", takerHash.Hex(),
			"err", err,
		)
	}
}

// ArchivedTrade reads a settled trade back from the archive. It returns
// database.ErrNotFound when the pair was never archived.
func ArchivedTrade(makerHash, takerHash common.Hash) (maker, taker *Order, settler common.Address, timestamp uint64, err error) {
	archiveMu.RLock()
	db := tradeArchive
	archiveMu.RUnlock()
	if db == nil {
		return nil, nil, common.Address{}, 0, database.ErrNotFound
	}

	record, err := db.Get(archiveKey(makerHash, takerHash))
	if err != nil {
		return nil, nil, common.Address{}, 0, err
	}
	if len(record) != 2*orderWireSize+64 {
		return nil, nil, common.Address{}, 0, ErrInvalidInput
	}

	maker, err = DecodeOrder(record[:orderWireSize])
	if err != nil {
		return nil, nil, common.Address{}, 0, err
	}
	taker, err = DecodeOrder(record[orderWireSize : 2*orderWireSize])
	if err != nil {
		return nil, nil, common.Address{}, 0, err
	}
	settler = common.BytesToAddress(record[2*orderWireSize+12 : 2*orderWireSize+32])
	timestamp = common.BytesToHash(record[2*orderWireSize+32:]).Big().Uint64()
	return maker, taker, settler, timestamp, nil
}
