// Copyright (C) 2025, OmniBazaar, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"github.com/luxfi/geth/common"

	"github.com/omnibazaar/precompile/contract"
)

// Module bundles everything the chain needs to host one stateful precompile.
type Module struct {
	// ConfigKey is the json key for this precompile in chain config.
	ConfigKey string
	// Address is the address this precompile is registered at.
	Address common.Address
	// Contract is the precompile implementation.
	Contract contract.StatefulPrecompiledContract
	// Configurator applies genesis/upgrade configuration.
	Configurator contract.Configurator
}

type moduleArray []Module

func (m moduleArray) Len() int      { return len(m) }
func (m moduleArray) Swap(i, j int) { m[i], m[j] = m[j], m[i] }
func (m moduleArray) Less(i, j int) bool {
	return m[i].Address.Cmp(m[j].Address) < 0
}
