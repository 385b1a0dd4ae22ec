// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// ValidateMatch checks that two independently signed orders are mutually
// compatible before any value moves. It is a pure function of its inputs.
//
// Rules:
//  1. Sides must be opposite.
//  2. Token pairs must mirror (maker.tokenIn == taker.tokenOut and vice
//     versa).
//  3. The taker may size at or under the maker's amounts.
//  4. If the maker is buying, maker.price >= taker.price; if selling,
//     maker.price <= taker.price. Price is a policy check only; settled
//     quantities come literally from the orders.
func ValidateMatch(maker, taker *Order) error {
	if maker.IsBuy == taker.IsBuy {
		return ErrOrdersDontMatch
	}

	if maker.TokenIn != taker.TokenOut || maker.TokenOut != taker.TokenIn {
		return ErrOrdersDontMatch
	}

	if taker.AmountIn.Cmp(maker.AmountOut) > 0 || taker.AmountOut.Cmp(maker.AmountIn) > 0 {
		return ErrOrdersDontMatch
	}

	if maker.IsBuy {
		if maker.Price.Cmp(taker.Price) < 0 {
			return ErrOrdersDontMatch
		}
	} else {
		if maker.Price.Cmp(taker.Price) > 0 {
			return ErrOrdersDontMatch
		}
	}

	return nil
}

// validateOrderFields rejects orders that could never settle regardless of
// the counterparty.
func validateOrderFields(o *Order) error {
	if o.Trader == (common.Address{}) || o.TokenIn == (common.Address{}) || o.TokenOut == (common.Address{}) {
		return ErrZeroAddress
	}
	if o.TokenIn == o.TokenOut {
		return ErrSameToken
	}
	if o.AmountIn == nil || o.AmountOut == nil || o.AmountIn.Sign() <= 0 || o.AmountOut.Sign() <= 0 {
		return ErrZeroAmount
	}
	if o.Price == nil || o.Deadline == nil || o.Salt == nil {
		return ErrInvalidInput
	}
	return nil
}

// expired reports whether [o] is invalid at [timestamp]. Orders are valid
// through their deadline instant and invalid strictly after it.
func expired(o *Order, timestamp uint64) bool {
	return o.Deadline.Cmp(new(big.Int).SetUint64(timestamp)) < 0
}
