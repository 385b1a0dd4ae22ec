// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name       string
		fee        int64
		governance int64
		staking    int64
		validator  int64
	}{
		{name: "round numbers", fee: 10000, governance: 7000, staking: 2000, validator: 1000},
		{name: "dust to governance", fee: 7, governance: 7, staking: 0, validator: 0},
		{name: "uneven", fee: 1234, governance: 865, staking: 246, validator: 123},
		{name: "zero", fee: 0, governance: 0, staking: 0, validator: 0},
		{name: "one", fee: 1, governance: 1, staking: 0, validator: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			governance, staking, validator := SplitFee(big.NewInt(tt.fee))
			require.Equal(t, tt.governance, governance.Int64())
			require.Equal(t, tt.staking, staking.Int64())
			require.Equal(t, tt.validator, validator.Int64())

			// Shares always reassemble the fee exactly.
			sum := new(big.Int).Add(governance, staking)
			sum.Add(sum, validator)
			require.Equal(t, tt.fee, sum.Int64())
		})
	}
}

func TestAccrueFeeLedger(t *testing.T) {
	state := NewMockStateDB()
	setGovernance(state, testGov)
	setStakingPool(state, testStaking)

	accrueFee(state, tokenA, testValidator, big.NewInt(1000))
	accrueFee(state, tokenA, testValidator, big.NewInt(1000))

	// Accrual is additive.
	require.Equal(t, big.NewInt(1400), FeeBalance(state, testGov, tokenA))
	require.Equal(t, big.NewInt(400), FeeBalance(state, testStaking, tokenA))
	require.Equal(t, big.NewInt(200), FeeBalance(state, testValidator, tokenA))
}

func TestFeeTokenTracking(t *testing.T) {
	state := NewMockStateDB()
	setGovernance(state, testGov)
	setStakingPool(state, testStaking)

	require.Empty(t, FeeTokens(state))

	accrueFee(state, tokenA, testValidator, big.NewInt(100))
	accrueFee(state, tokenB, testValidator, big.NewInt(100))
	accrueFee(state, tokenA, testValidator, big.NewInt(100)) // no duplicate

	require.Equal(t, []common.Address{tokenA, tokenB}, FeeTokens(state))
}
