// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestReservedAddress(t *testing.T) {
	require.True(t, ReservedAddress(common.HexToAddress("0x0000000000000000000000000000000000000b00")))
	require.True(t, ReservedAddress(common.HexToAddress("0x0000000000000000000000000000000000000b10")))
	require.True(t, ReservedAddress(common.HexToAddress("0x0000000000000000000000000000000000000bff")))

	require.False(t, ReservedAddress(common.HexToAddress("0x0000000000000000000000000000000000000aff")))
	require.False(t, ReservedAddress(common.HexToAddress("0x0000000000000000000000000000000000000c00")))
	require.False(t, ReservedAddress(BlackholeAddr))
}

func TestRegisterModule(t *testing.T) {
	first := Module{
		ConfigKey: "testModuleB",
		Address:   common.HexToAddress("0x0000000000000000000000000000000000000bf2"),
	}
	second := Module{
		ConfigKey: "testModuleA",
		Address:   common.HexToAddress("0x0000000000000000000000000000000000000bf1"),
	}

	require.NoError(t, RegisterModule(first))
	require.NoError(t, RegisterModule(second))

	// Duplicate key and duplicate address both rejected.
	require.Error(t, RegisterModule(Module{
		ConfigKey: "testModuleB",
		Address:   common.HexToAddress("0x0000000000000000000000000000000000000bf3"),
	}))
	require.Error(t, RegisterModule(Module{
		ConfigKey: "testModuleC",
		Address:   first.Address,
	}))

	// Out-of-range address rejected.
	require.Error(t, RegisterModule(Module{
		ConfigKey: "testModuleD",
		Address:   common.HexToAddress("0x0100000000000000000000000000000000000000"),
	}))

	// Lookup by address and key.
	got, ok := GetPrecompileModuleByAddress(second.Address)
	require.True(t, ok)
	require.Equal(t, "testModuleA", got.ConfigKey)

	got, ok = GetPrecompileModule("testModuleB")
	require.True(t, ok)
	require.Equal(t, first.Address, got.Address)

	_, ok = GetPrecompileModule("missing")
	require.False(t, ok)

	// Registered list is sorted by address.
	all := RegisteredModules()
	for i := 1; i < len(all); i++ {
		require.Negative(t, all[i-1].Address.Cmp(all[i].Address))
	}
}
